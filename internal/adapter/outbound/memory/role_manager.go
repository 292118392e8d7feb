// Package memory provides in-memory implementations of the PERM core's
// storage-facing interfaces: the role-inheritance graph (C2) and the
// assertion/policy store (C3). Both are development/production-grade for
// a library with no durable storage format of its own (spec.md §2
// Non-goals) — "in-memory" here is the only storage tier, not a
// placeholder for one.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
	"github.com/Sentinel-Gate/permkit/internal/domain/rbac"
)

const defaultMaxHierarchyLevel = 10

// role is one node of the inheritance graph: a name plus its ordered,
// deduplicated out-edges ("inherits").
type role struct {
	name  string
	edges []*role
}

func (r *role) addEdge(to *role) {
	for _, e := range r.edges {
		if e == to {
			return
		}
	}
	r.edges = append(r.edges, to)
}

func (r *role) deleteEdge(to *role) {
	for i, e := range r.edges {
		if e == to {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return
		}
	}
}

// hasRole performs the bounded-depth DFS from spec.md §4.2: name equality
// is checked before the budget cutoff, so a target reached exactly at the
// budget boundary still matches, matching casbin-rs's Role::has_role.
func (r *role) hasRole(name string, budget int) bool {
	if r.name == name {
		return true
	}
	if budget <= 0 {
		return false
	}
	for _, e := range r.edges {
		if e.hasRole(name, budget-1) {
			return true
		}
	}
	return false
}

// RoleManager is the default in-memory implementation of rbac.RoleManager:
// a directed graph keyed by (possibly domain-namespaced) role name, with
// bounded-depth reachability and an optional pattern matcher for glob/regex
// role lookup, grounded on casbin-rs's DefaultRoleManager.
type RoleManager struct {
	mu                sync.RWMutex
	roles             map[string]*role
	order             []string // insertion order, for deterministic pattern scans
	maxHierarchyLevel int
	matchFn           rbac.MatchingFunc
}

// NewRoleManager returns a RoleManager bounding reachability DFS to
// maxHierarchyLevel steps. A non-positive value falls back to the
// spec's default of 10.
func NewRoleManager(maxHierarchyLevel int) *RoleManager {
	if maxHierarchyLevel <= 0 {
		maxHierarchyLevel = defaultMaxHierarchyLevel
	}
	return &RoleManager{
		roles:             make(map[string]*role),
		maxHierarchyLevel: maxHierarchyLevel,
	}
}

var _ rbac.RoleManager = (*RoleManager)(nil)

func namespaced(name, domain string) string {
	if domain == "" {
		return name
	}
	return domain + "::" + name
}

// Clear drops all nodes and edges.
func (rm *RoleManager) Clear() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.roles = make(map[string]*role)
	rm.order = nil
}

// AddMatchingFunc installs the pattern-role resolver.
func (rm *RoleManager) AddMatchingFunc(fn rbac.MatchingFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.matchFn = fn
}

// resolveName returns the existing role key that matches name, honoring
// the pattern matcher when one is installed; otherwise name itself.
// Callers must hold rm.mu.
func (rm *RoleManager) resolveName(name string) string {
	if rm.matchFn == nil {
		return name
	}
	if _, ok := rm.roles[name]; ok {
		return name
	}
	for _, key := range rm.order {
		if rm.matchFn(name, key) {
			return key
		}
	}
	return name
}

// getOrCreate returns the role for name, creating it (and recording
// insertion order) if absent. Callers must hold rm.mu.
func (rm *RoleManager) getOrCreate(name string) *role {
	name = rm.resolveName(name)
	r, ok := rm.roles[name]
	if !ok {
		r = &role{name: name}
		rm.roles[name] = r
		rm.order = append(rm.order, name)
	}
	return r
}

// hasNode reports whether name resolves to an existing role. Callers
// must hold rm.mu (read lock is sufficient).
func (rm *RoleManager) hasNode(name string) bool {
	_, ok := rm.roles[rm.resolveName(name)]
	return ok
}

// AddLink records that n1 inherits n2, creating both nodes as needed.
func (rm *RoleManager) AddLink(n1, n2, domain string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n1, n2 = namespaced(n1, domain), namespaced(n2, domain)
	r1 := rm.getOrCreate(n1)
	r2 := rm.getOrCreate(n2)
	r1.addEdge(r2)
}

// DeleteLink removes the n1 -> n2 edge; both nodes must already exist.
func (rm *RoleManager) DeleteLink(n1, n2, domain string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n1, n2 = namespaced(n1, domain), namespaced(n2, domain)

	if !rm.hasNode(n1) {
		return fmt.Errorf("role manager: delete_link: %w", &model.MissingRoleError{Name: n1})
	}
	if !rm.hasNode(n2) {
		return fmt.Errorf("role manager: delete_link: %w", &model.MissingRoleError{Name: n2})
	}
	r1 := rm.roles[rm.resolveName(n1)]
	r2 := rm.roles[rm.resolveName(n2)]
	r1.deleteEdge(r2)
	return nil
}

// HasLink reports whether n1 inherits n2 within MaxHierarchyLevel steps.
func (rm *RoleManager) HasLink(n1, n2, domain string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	n1, n2 = namespaced(n1, domain), namespaced(n2, domain)

	if n1 == n2 {
		return true
	}
	if !rm.hasNode(n1) || !rm.hasNode(n2) {
		return false
	}
	r1 := rm.roles[rm.resolveName(n1)]
	resolvedN2 := rm.resolveName(n2)
	return r1.hasRole(resolvedN2, rm.maxHierarchyLevel)
}

// GetRoles returns n's direct out-neighbours, in insertion order, with
// the "{domain}::" prefix removed.
func (rm *RoleManager) GetRoles(n, domain string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	n = namespaced(n, domain)
	if !rm.hasNode(n) {
		return nil
	}
	r := rm.roles[rm.resolveName(n)]
	prefix := namespaced("", domain)
	names := make([]string, len(r.edges))
	for i, e := range r.edges {
		names[i] = strings.TrimPrefix(e.name, prefix)
	}
	return names
}

// GetUsers returns every node with a direct edge to n, in graph
// insertion order, with the "{domain}::" prefix removed.
func (rm *RoleManager) GetUsers(n, domain string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	n = namespaced(n, domain)
	if !rm.hasNode(n) {
		return nil
	}
	target := rm.roles[rm.resolveName(n)]
	prefix := namespaced("", domain)

	var names []string
	for _, name := range rm.order {
		r := rm.roles[name]
		for _, e := range r.edges {
			if e == target {
				names = append(names, strings.TrimPrefix(name, prefix))
				break
			}
		}
	}
	return names
}
