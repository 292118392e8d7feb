package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

func TestRoleManagerAddAndHasLink(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddLink("alice", "admin", "")
	rm.AddLink("admin", "data1_admin", "")

	if !rm.HasLink("alice", "admin", "") {
		t.Error("alice should directly inherit admin")
	}
	if !rm.HasLink("alice", "data1_admin", "") {
		t.Error("alice should transitively inherit data1_admin")
	}
	if rm.HasLink("bob", "admin", "") {
		t.Error("unknown user should not have the link")
	}
	if !rm.HasLink("alice", "alice", "") {
		t.Error("a role always has a link to itself")
	}
}

func TestRoleManagerHasLinkRespectsHierarchyBudget(t *testing.T) {
	rm := NewRoleManager(2)
	rm.AddLink("l0", "l1", "")
	rm.AddLink("l1", "l2", "")
	rm.AddLink("l2", "l3", "")

	if !rm.HasLink("l0", "l1", "") {
		t.Error("l0 -> l1 is one step, should be reachable")
	}
	if !rm.HasLink("l0", "l2", "") {
		t.Error("l0 -> l2 is two steps, should be reachable within budget 2")
	}
	if rm.HasLink("l0", "l3", "") {
		t.Error("l0 -> l3 is three steps, should exceed budget 2")
	}
}

func TestRoleManagerDomainNamespacing(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddLink("alice", "admin", "tenant1")
	rm.AddLink("alice", "admin", "tenant2")

	if !rm.HasLink("alice", "admin", "tenant1") {
		t.Error("alice should be admin in tenant1")
	}
	rm.DeleteLink("alice", "admin", "tenant1") //nolint:errcheck
	if rm.HasLink("alice", "admin", "tenant1") {
		t.Error("link should be gone in tenant1 after delete")
	}
	if !rm.HasLink("alice", "admin", "tenant2") {
		t.Error("tenant2's link must be unaffected by tenant1's delete")
	}
}

func TestRoleManagerDeleteLinkMissingRole(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddLink("alice", "admin", "")

	err := rm.DeleteLink("alice", "ghost", "")
	if err == nil {
		t.Fatal("expected an error deleting a link to an absent role")
	}
	var missing *model.MissingRoleError
	if !errors.As(err, &missing) {
		t.Fatalf("expected a MissingRoleError, got %v", err)
	}
	if missing.Name != "ghost" {
		t.Errorf("MissingRoleError.Name = %q, want %q", missing.Name, "ghost")
	}
}

func TestRoleManagerGetRolesAndGetUsers(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddLink("alice", "admin", "")
	rm.AddLink("bob", "admin", "")
	rm.AddLink("alice", "auditor", "")

	roles := rm.GetRoles("alice", "")
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "auditor" {
		t.Errorf("GetRoles(alice) = %v", roles)
	}

	users := rm.GetUsers("admin", "")
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Errorf("GetUsers(admin) = %v", users)
	}

	if got := rm.GetRoles("ghost", ""); got != nil {
		t.Errorf("GetRoles for an absent role should be empty, got %v", got)
	}
}

func TestRoleManagerMatchingFunc(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddMatchingFunc(func(name, key string) bool {
		return strings.HasPrefix(key, "pattern::") && strings.HasSuffix(key, "*")
	})
	rm.AddLink("alice", "pattern::admin-*", "")

	if !rm.HasLink("alice", "pattern::admin-*", "") {
		t.Error("exact pattern key should still match")
	}

	rm.AddLink("bob", "pattern::admin-*", "")
	if !rm.HasLink("bob", "pattern::admin-*", "") {
		t.Error("bob should resolve into the same pattern role as alice")
	}
	roles := rm.GetRoles("bob", "")
	if len(roles) != 1 || roles[0] != "pattern::admin-*" {
		t.Errorf("GetRoles(bob) = %v, want a single shared pattern role", roles)
	}
}

func TestRoleManagerClear(t *testing.T) {
	rm := NewRoleManager(0)
	rm.AddLink("alice", "admin", "")
	rm.Clear()
	if rm.HasLink("alice", "admin", "") {
		t.Error("Clear should drop all links")
	}
	if got := rm.GetRoles("alice", ""); got != nil {
		t.Error("Clear should drop all nodes")
	}
}
