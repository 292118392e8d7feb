package enforcer

import "strings"

func domainArg(domain []string) string {
	if len(domain) > 0 {
		return domain[0]
	}
	return ""
}

// AddRoleForUser records that user inherits role, in the given optional
// domain.
func (e *Enforcer) AddRoleForUser(user, role string, domain ...string) (bool, error) {
	return e.AddNamedGroupingPolicy("g", groupingRule(user, role, domain)...)
}

// DeleteRoleForUser removes the user -> role inheritance.
func (e *Enforcer) DeleteRoleForUser(user, role string, domain ...string) (bool, error) {
	return e.RemoveNamedGroupingPolicy("g", groupingRule(user, role, domain)...)
}

// DeleteRolesForUser removes every role user inherits in the given
// optional domain.
func (e *Enforcer) DeleteRolesForUser(user string, domain ...string) (bool, error) {
	removed, err := e.RemoveFilteredNamedGroupingPolicy("g", 0, groupingFilter(user, domain)...)
	return len(removed) > 0, err
}

// GetRolesForUser returns the roles user directly inherits.
func (e *Enforcer) GetRolesForUser(user string, domain ...string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roleManager.GetRoles(user, domainArg(domain))
}

// GetUsersForRole returns every subject that directly inherits role.
func (e *Enforcer) GetUsersForRole(role string, domain ...string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roleManager.GetUsers(role, domainArg(domain))
}

// HasRoleForUser reports whether user directly inherits role.
func (e *Enforcer) HasRoleForUser(user, role string, domain ...string) bool {
	for _, r := range e.GetRolesForUser(user, domain...) {
		if r == role {
			return true
		}
	}
	return false
}

// AddPermissionForUser records that user (or role) has permission,
// expressed as a trailing object/action tuple appended to a "p" rule.
func (e *Enforcer) AddPermissionForUser(user string, permission ...string) (bool, error) {
	return e.AddNamedPolicy("p", append([]string{user}, permission...)...)
}

// DeletePermissionForUser removes one permission rule for user.
func (e *Enforcer) DeletePermissionForUser(user string, permission ...string) (bool, error) {
	return e.RemoveNamedPolicy("p", append([]string{user}, permission...)...)
}

// DeletePermissionsForUser removes every permission rule for user.
func (e *Enforcer) DeletePermissionsForUser(user string) (bool, error) {
	removed, err := e.RemoveFilteredNamedPolicy("p", 0, user)
	return len(removed) > 0, err
}

// GetPermissionsForUser returns every "p" rule whose subject is user.
func (e *Enforcer) GetPermissionsForUser(user string) [][]string {
	return e.GetFilteredNamedPolicy("p", 0, user)
}

// HasPermissionForUser reports whether user has permission directly
// (not via an inherited role).
func (e *Enforcer) HasPermissionForUser(user string, permission ...string) bool {
	return e.HasNamedPolicy("p", append([]string{user}, permission...)...)
}

// GetImplicitRolesForUser returns every role user inherits, directly or
// transitively, excluding user itself, via a breadth-first expansion of
// the role graph (insertion order within each level).
func (e *Enforcer) GetImplicitRolesForUser(user string, domain ...string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dom := domainArg(domain)
	visited := map[string]bool{user: true}
	queue := []string{user}
	var roles []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, r := range e.roleManager.GetRoles(current, dom) {
			if visited[r] {
				continue
			}
			visited[r] = true
			roles = append(roles, r)
			queue = append(queue, r)
		}
	}
	return roles
}

// GetImplicitPermissionsForUser returns the union of GetPermissionsForUser
// over {user} and every role user implicitly inherits, deduplicated,
// first-seen order preserved.
func (e *Enforcer) GetImplicitPermissionsForUser(user string, domain ...string) [][]string {
	subjects := append([]string{user}, e.GetImplicitRolesForUser(user, domain...)...)

	seen := make(map[string]bool)
	var perms [][]string
	for _, subject := range subjects {
		for _, p := range e.GetPermissionsForUser(subject) {
			key := strings.Join(p, "\x00")
			if seen[key] {
				continue
			}
			seen[key] = true
			perms = append(perms, p)
		}
	}
	return perms
}

func groupingRule(user, role string, domain []string) []string {
	if len(domain) > 0 {
		return []string{user, role, domain[0]}
	}
	return []string{user, role}
}

func groupingFilter(user string, domain []string) []string {
	if len(domain) > 0 {
		return []string{user, "", domain[0]}
	}
	return []string{user}
}
