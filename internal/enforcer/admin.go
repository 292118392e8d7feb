package enforcer

import "github.com/Sentinel-Gate/permkit/internal/domain/model"

// ClearPolicy drops every policy and grouping rule, then clears the role
// graph to match.
func (e *Enforcer) ClearPolicy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ClearPolicy()
	return e.buildRoleLinksLocked()
}

// Model returns the enforcer's underlying model, for adapters that need
// to reload or inspect it directly.
func (e *Enforcer) Model() *model.Model {
	return e.model
}
