// Package rbac defines the role-inheritance graph contract (C2): a
// directed "inherits" graph with domain namespacing, bounded-depth
// reachability, and optional pattern-matched role lookup.
package rbac

// MatchingFunc resolves a role name to an existing pattern-role: it
// returns true when name matches the pattern key (e.g. glob or regex
// role names registered via AddMatchingFunc).
type MatchingFunc func(name, key string) bool

// RoleManager is the role-inheritance graph contract (C2). Its queries
// (HasLink, GetRoles, GetUsers) are total: a query against an absent role
// degrades to a false/empty result rather than an error, so that matcher
// evaluation (which calls HasLink through the g() builtin) never fails on
// a missing role. DeleteLink is the one method that reports a missing role.
type RoleManager interface {
	// Clear drops all nodes and edges.
	Clear()

	// AddLink creates n1 and n2 if absent and records that n1 inherits
	// n2. When domain is non-empty, both names are first namespaced as
	// "{domain}::{name}".
	AddLink(n1, n2, domain string)

	// DeleteLink removes the edge n1 -> n2. Both nodes must already
	// exist; otherwise it returns a MissingRoleError for the absent one.
	DeleteLink(n1, n2, domain string) error

	// HasLink reports whether n1 inherits n2, directly or transitively,
	// within MaxHierarchyLevel steps. n1 == n2 is always true. A missing
	// n1 or n2 evaluates to false, never an error.
	HasLink(n1, n2, domain string) bool

	// GetRoles returns the direct out-neighbours of n (the roles n
	// inherits), in insertion order, without the "{domain}::" prefix.
	// Empty if n is absent.
	GetRoles(n, domain string) []string

	// GetUsers returns every node with a direct edge to n (the nodes
	// that inherit n), without the "{domain}::" prefix. Empty if n is
	// absent.
	GetUsers(n, domain string) []string

	// AddMatchingFunc installs fn as the pattern-role resolver: role
	// lookups (HasLink, implicit creation) scan existing role keys and
	// treat name as matched against the first key fn(name, key) accepts.
	AddMatchingFunc(fn MatchingFunc)
}
