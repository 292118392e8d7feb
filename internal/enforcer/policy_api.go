package enforcer

import (
	"fmt"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

// AddPolicy appends rule to the default "p" policy, returning whether it
// was new.
func (e *Enforcer) AddPolicy(rule ...string) (bool, error) {
	return e.AddNamedPolicy("p", rule...)
}

// AddNamedPolicy appends rule to ptype's policy.
func (e *Enforcer) AddNamedPolicy(ptype string, rule ...string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkArity(model.SectionPolicy, ptype, rule); err != nil {
		return false, err
	}
	return e.store.AddPolicy(model.SectionPolicy, ptype, rule), nil
}

// RemovePolicy removes rule from the default "p" policy.
func (e *Enforcer) RemovePolicy(rule ...string) (bool, error) {
	return e.RemoveNamedPolicy("p", rule...)
}

// RemoveNamedPolicy removes rule from ptype's policy.
func (e *Enforcer) RemoveNamedPolicy(ptype string, rule ...string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.RemovePolicy(model.SectionPolicy, ptype, rule), nil
}

// HasPolicy reports whether rule exists in the default "p" policy.
func (e *Enforcer) HasPolicy(rule ...string) bool {
	return e.HasNamedPolicy("p", rule...)
}

// HasNamedPolicy reports whether rule exists in ptype's policy.
func (e *Enforcer) HasNamedPolicy(ptype string, rule ...string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.HasPolicy(model.SectionPolicy, ptype, rule)
}

// GetPolicy returns every rule in the default "p" policy.
func (e *Enforcer) GetPolicy() [][]string {
	return e.GetNamedPolicy("p")
}

// GetNamedPolicy returns every rule in ptype's policy.
func (e *Enforcer) GetNamedPolicy(ptype string) [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.GetPolicy(model.SectionPolicy, ptype)
}

// GetFilteredPolicy returns rules in the default "p" policy matching
// fieldValues starting at fieldIndex.
func (e *Enforcer) GetFilteredPolicy(fieldIndex int, fieldValues ...string) [][]string {
	return e.GetFilteredNamedPolicy("p", fieldIndex, fieldValues...)
}

// GetFilteredNamedPolicy returns rules in ptype's policy matching
// fieldValues starting at fieldIndex.
func (e *Enforcer) GetFilteredNamedPolicy(ptype string, fieldIndex int, fieldValues ...string) [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.GetFilteredPolicy(model.SectionPolicy, ptype, fieldIndex, fieldValues...)
}

// RemoveFilteredPolicy removes rules in the default "p" policy matching
// fieldValues starting at fieldIndex.
func (e *Enforcer) RemoveFilteredPolicy(fieldIndex int, fieldValues ...string) ([][]string, error) {
	return e.RemoveFilteredNamedPolicy("p", fieldIndex, fieldValues...)
}

// RemoveFilteredNamedPolicy removes rules in ptype's policy matching
// fieldValues starting at fieldIndex.
func (e *Enforcer) RemoveFilteredNamedPolicy(ptype string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.RemoveFilteredPolicy(model.SectionPolicy, ptype, fieldIndex, fieldValues...), nil
}

// AddGroupingPolicy appends rule to the default "g" role definition,
// rebuilding the role graph on success when auto-build is enabled.
func (e *Enforcer) AddGroupingPolicy(rule ...string) (bool, error) {
	return e.AddNamedGroupingPolicy("g", rule...)
}

// AddNamedGroupingPolicy appends rule to ptype's role definition.
func (e *Enforcer) AddNamedGroupingPolicy(ptype string, rule ...string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := e.store.AddPolicy(model.SectionRole, ptype, rule)
	if added && e.autoBuildRoleLinks {
		if err := e.buildRoleLinksLocked(); err != nil {
			e.store.RemovePolicy(model.SectionRole, ptype, rule)
			return false, err
		}
	}
	return added, nil
}

// RemoveGroupingPolicy removes rule from the default "g" role
// definition, rebuilding the role graph on success when auto-build is
// enabled.
func (e *Enforcer) RemoveGroupingPolicy(rule ...string) (bool, error) {
	return e.RemoveNamedGroupingPolicy("g", rule...)
}

// RemoveNamedGroupingPolicy removes rule from ptype's role definition.
func (e *Enforcer) RemoveNamedGroupingPolicy(ptype string, rule ...string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.RemovePolicy(model.SectionRole, ptype, rule)
	if removed && e.autoBuildRoleLinks {
		if err := e.buildRoleLinksLocked(); err != nil {
			return false, err
		}
	}
	return removed, nil
}

// RemoveFilteredGroupingPolicy removes rules from the default "g" role
// definition matching fieldValues starting at fieldIndex.
func (e *Enforcer) RemoveFilteredGroupingPolicy(fieldIndex int, fieldValues ...string) ([][]string, error) {
	return e.RemoveFilteredNamedGroupingPolicy("g", fieldIndex, fieldValues...)
}

// RemoveFilteredNamedGroupingPolicy removes rules from ptype's role
// definition matching fieldValues starting at fieldIndex.
func (e *Enforcer) RemoveFilteredNamedGroupingPolicy(ptype string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.RemoveFilteredPolicy(model.SectionRole, ptype, fieldIndex, fieldValues...)
	if len(removed) > 0 && e.autoBuildRoleLinks {
		if err := e.buildRoleLinksLocked(); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// checkArity validates rule against ptype's declared token count, when
// the model defines one. Callers must hold e.mu for writing.
func (e *Enforcer) checkArity(sec, ptype string, rule []string) error {
	a := e.model.Get(sec, ptype)
	if a == nil || len(a.Tokens) == 0 {
		return nil
	}
	if len(rule) != len(a.Tokens) {
		return fmt.Errorf("%w: %s rule %v does not match %d declared tokens", model.ErrInvalidValue, ptype, rule, len(a.Tokens))
	}
	return nil
}
