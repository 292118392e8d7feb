// Package policy defines the assertion/policy store contract (C3): rule
// storage and lookup operating on (ptype, rule) tuples, independent of
// how those rules are persisted.
package policy

// Store is the policy-rule storage contract. ptype identifies the
// policy/grouping variant within its section ("p", "p2", "g", "g2", ...);
// rule is the ordered field tuple the model's token list for ptype
// describes ("sub, obj, act" -> []string{"alice", "data1", "read"}).
type Store interface {
	// AddPolicy appends rule for ptype if it is not already present.
	// Reports whether the rule was added (false when it was a duplicate).
	AddPolicy(sec, ptype string, rule []string) bool

	// AddPolicies appends every rule in rules that is not already
	// present, atomically: either all of the new rules are added or
	// none are (a duplicate anywhere in the batch aborts the whole
	// call). Returns the rules actually added.
	AddPolicies(sec, ptype string, rules [][]string) [][]string

	// RemovePolicy removes rule for ptype. Reports whether a matching
	// rule was found and removed.
	RemovePolicy(sec, ptype string, rule []string) bool

	// HasPolicy reports whether rule is present for ptype.
	HasPolicy(sec, ptype string, rule []string) bool

	// GetPolicy returns every rule stored for ptype, in insertion order.
	GetPolicy(sec, ptype string) [][]string

	// GetFilteredPolicy returns every rule for ptype whose fields match
	// fieldValues at the corresponding fieldIndex offset. An empty
	// string in fieldValues means "don't care" for that position.
	GetFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) [][]string

	// RemoveFilteredPolicy removes every rule matching the same filter
	// as GetFilteredPolicy. Returns the removed rules.
	RemoveFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) [][]string

	// GetValuesForFieldInPolicy returns the distinct values occurring at
	// fieldIndex across every rule stored for ptype, in sorted order.
	GetValuesForFieldInPolicy(sec, ptype string, fieldIndex int) []string

	// ClearPolicy drops every rule in every policy (p) and role (g)
	// assertion.
	ClearPolicy()
}
