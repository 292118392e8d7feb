package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
	"github.com/Sentinel-Gate/permkit/internal/domain/policy"
)

// PolicyStore is the default in-memory implementation of policy.Store: it
// owns rule storage for every (section, ptype) pair inside a *model.Model,
// guarded by a single RWMutex, with an xxhash-keyed index for O(1)
// duplicate detection on AddPolicy/HasPolicy.
type PolicyStore struct {
	mu    sync.RWMutex
	m     *model.Model
	index map[string]map[uint64]struct{} // "sec/ptype" -> hash(rule) -> present
}

var _ policy.Store = (*PolicyStore)(nil)

// NewPolicyStore wraps m, an already-loaded model, as a policy.Store,
// indexing the p/g rules m already holds.
func NewPolicyStore(m *model.Model) *PolicyStore {
	ps := &PolicyStore{
		m:     m,
		index: make(map[string]map[uint64]struct{}),
	}
	for _, sec := range []string{model.SectionPolicy, model.SectionRole} {
		for ptype, a := range m.Section(sec) {
			key := bucketKey(sec, ptype)
			for _, rule := range a.Policy {
				if ps.index[key] == nil {
					ps.index[key] = make(map[uint64]struct{})
				}
				ps.index[key][ruleHash(rule)] = struct{}{}
			}
		}
	}
	return ps
}

func ruleHash(rule []string) uint64 {
	h := xxhash.New()
	for _, f := range rule {
		_, _ = h.WriteString(f)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func bucketKey(sec, ptype string) string {
	return sec + "/" + ptype
}

// assertion returns the Assertion for (sec, ptype), creating a bare one
// if absent. Callers must hold ps.mu for writing.
func (ps *PolicyStore) assertion(sec, ptype string) *model.Assertion {
	return ps.m.EnsureAssertion(sec, ptype)
}

func (ps *PolicyStore) AddPolicy(sec, ptype string, rule []string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.addPolicyLocked(sec, ptype, rule)
}

func (ps *PolicyStore) addPolicyLocked(sec, ptype string, rule []string) bool {
	key := bucketKey(sec, ptype)
	bucket := ps.index[key]
	if bucket == nil {
		bucket = make(map[uint64]struct{})
		ps.index[key] = bucket
	}
	h := ruleHash(rule)
	if _, dup := bucket[h]; dup {
		return false
	}

	a := ps.assertion(sec, ptype)
	a.Policy = append(a.Policy, append([]string(nil), rule...))
	bucket[h] = struct{}{}
	return true
}

func (ps *PolicyStore) AddPolicies(sec, ptype string, rules [][]string) [][]string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key := bucketKey(sec, ptype)
	bucket := ps.index[key]
	for _, rule := range rules {
		h := ruleHash(rule)
		if bucket != nil {
			if _, dup := bucket[h]; dup {
				return nil
			}
		}
	}

	added := make([][]string, 0, len(rules))
	for _, rule := range rules {
		if ps.addPolicyLocked(sec, ptype, rule) {
			added = append(added, rule)
		}
	}
	return added
}

func (ps *PolicyStore) RemovePolicy(sec, ptype string, rule []string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	a := ps.m.Get(sec, ptype)
	if a == nil {
		return false
	}
	for i, r := range a.Policy {
		if equalRule(r, rule) {
			a.Policy = append(a.Policy[:i], a.Policy[i+1:]...)
			delete(ps.index[bucketKey(sec, ptype)], ruleHash(rule))
			return true
		}
	}
	return false
}

func (ps *PolicyStore) HasPolicy(sec, ptype string, rule []string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	bucket := ps.index[bucketKey(sec, ptype)]
	if bucket == nil {
		return false
	}
	_, ok := bucket[ruleHash(rule)]
	return ok
}

func (ps *PolicyStore) GetPolicy(sec, ptype string) [][]string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	a := ps.m.Get(sec, ptype)
	if a == nil {
		return nil
	}
	return cloneRules(a.Policy)
}

func (ps *PolicyStore) GetFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) [][]string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	a := ps.m.Get(sec, ptype)
	if a == nil {
		return nil
	}
	var out [][]string
	for _, r := range a.Policy {
		if ruleMatchesFilter(r, fieldIndex, fieldValues) {
			out = append(out, append([]string(nil), r...))
		}
	}
	return out
}

func (ps *PolicyStore) RemoveFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) [][]string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	a := ps.m.Get(sec, ptype)
	if a == nil {
		return nil
	}
	bucket := ps.index[bucketKey(sec, ptype)]

	var removed [][]string
	kept := a.Policy[:0]
	for _, r := range a.Policy {
		if ruleMatchesFilter(r, fieldIndex, fieldValues) {
			removed = append(removed, append([]string(nil), r...))
			if bucket != nil {
				delete(bucket, ruleHash(r))
			}
			continue
		}
		kept = append(kept, r)
	}
	a.Policy = kept
	return removed
}

// GetValuesForFieldInPolicy returns the sorted, deduplicated set of values
// at fieldIndex across every rule in (sec, ptype), per spec.md §4.3.
func (ps *PolicyStore) GetValuesForFieldInPolicy(sec, ptype string, fieldIndex int) []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	a := ps.m.Get(sec, ptype)
	if a == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range a.Policy {
		if fieldIndex < 0 || fieldIndex >= len(r) {
			continue
		}
		v := r[fieldIndex]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (ps *PolicyStore) ClearPolicy() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, sec := range []string{model.SectionPolicy, model.SectionRole} {
		sm := ps.m.Section(sec)
		for _, a := range sm {
			a.Policy = nil
		}
	}
	ps.index = make(map[string]map[uint64]struct{})
}

func ruleMatchesFilter(rule []string, fieldIndex int, fieldValues []string) bool {
	for i, want := range fieldValues {
		if want == "" {
			continue
		}
		idx := fieldIndex + i
		if idx < 0 || idx >= len(rule) || rule[idx] != want {
			return false
		}
	}
	return true
}

func equalRule(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneRules(rules [][]string) [][]string {
	if rules == nil {
		return nil
	}
	out := make([][]string, len(rules))
	for i, r := range rules {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// ruleKeyString is used only by tests that want a human-readable rule
// identity for failure messages.
func ruleKeyString(rule []string) string {
	return strings.Join(rule, ",")
}
