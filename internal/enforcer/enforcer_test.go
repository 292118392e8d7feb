package enforcer

import (
	"testing"

	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

func newTestEnforcer(t *testing.T, r, p, e, m string, policyLines ...string) *Enforcer {
	t.Helper()
	mdl := model.New()
	mdl.AddDef(model.SectionRequest, "r", r)
	mdl.AddDef(model.SectionPolicy, "p", p)
	mdl.AddDef(model.SectionEffect, "e", e)
	mdl.AddDef(model.SectionMatcher, "m", m)
	for _, line := range policyLines {
		if err := mdl.LoadPolicyLine(line); err != nil {
			t.Fatalf("LoadPolicyLine(%q): %v", line, err)
		}
	}

	store := memory.NewPolicyStore(mdl)
	rm := memory.NewRoleManager(0)
	enf, err := New(mdl, store, rm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return enf
}

func mustEnforce(t *testing.T, enf *Enforcer, rvals ...any) bool {
	t.Helper()
	ok, err := enf.Enforce(rvals...)
	if err != nil {
		t.Fatalf("Enforce(%v): %v", rvals, err)
	}
	return ok
}

func TestEnforcerBasicExactMatch(t *testing.T) {
	enf := newTestEnforcer(t,
		"sub, obj, act",
		"sub, obj, act",
		"some(where (p.eft == allow))",
		"(r.sub==p.sub) && (r.obj==p.obj) && (r.act==p.act)",
		"p, alice, data1, read",
		"p, bob, data2, write",
	)

	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{"alice", "data1", "read", true},
		{"alice", "data2", "read", false},
		{"bob", "data2", "write", true},
		{"bob", "data2", "read", false},
	}
	for _, c := range cases {
		if got := mustEnforce(t, enf, c.sub, c.obj, c.act); got != c.want {
			t.Errorf("Enforce(%s,%s,%s) = %v, want %v", c.sub, c.obj, c.act, got, c.want)
		}
	}
}

func TestEnforcerRBACViaRoleLink(t *testing.T) {
	enf := newTestEnforcer(t,
		"sub, obj, act",
		"sub, obj, act",
		"some(where (p.eft == allow))",
		"g(r.sub, p.sub) && (r.obj==p.obj) && (r.act==p.act)",
		"p, data2_admin, data2, read",
		"p, data2_admin, data2, write",
	)

	if _, err := enf.AddGroupingPolicy("alice", "data2_admin"); err != nil {
		t.Fatalf("AddGroupingPolicy: %v", err)
	}

	if !mustEnforce(t, enf, "alice", "data2", "read") {
		t.Error("alice should read data2 via data2_admin")
	}
	if !mustEnforce(t, enf, "alice", "data2", "write") {
		t.Error("alice should write data2 via data2_admin")
	}
	if mustEnforce(t, enf, "bob", "data1", "read") {
		t.Error("bob has no role and no direct policy")
	}
}

func TestEnforcerKeyMatchAndRegexMatch(t *testing.T) {
	enf := newTestEnforcer(t,
		"sub, obj, act",
		"sub, obj, act",
		"some(where (p.eft == allow))",
		"(r.sub==p.sub) && keyMatch(r.obj,p.obj) && regexMatch(r.act,p.act)",
		"p, alice, /alice_data/*, GET",
	)

	if !mustEnforce(t, enf, "alice", "/alice_data/x", "GET") {
		t.Error("alice should match her own data prefix")
	}
	if mustEnforce(t, enf, "alice", "/bob_data/x", "GET") {
		t.Error("alice should not match bob's data prefix")
	}
}

func TestEnforcerDenyOverrideEffect(t *testing.T) {
	enf := newTestEnforcer(t,
		"sub, obj, act",
		"sub, obj, act",
		"!some(where (p.eft == deny))",
		"(r.sub==p.sub) && (r.obj==p.obj) && (r.act==p.act)",
		"p, alice, /alice_data/resource2, POST",
	)

	if !mustEnforce(t, enf, "alice", "/alice_data/resource2", "POST") {
		t.Error("no deny present, deny-override effect should allow")
	}
}

func TestEnforcerDomainRoleGraph(t *testing.T) {
	enf := newTestEnforcer(t,
		"sub, dom, obj, act",
		"sub, dom, obj, act",
		"some(where (p.eft == allow))",
		"g(r.sub, p.sub, r.dom) && r.dom == p.dom && r.obj==p.obj && r.act==p.act",
	)

	enf.AddRoleForUser("u4", "admin", "domain1") //nolint:errcheck
	enf.AddRoleForUser("u4", "admin", "domain2") //nolint:errcheck
	enf.AddRoleForUser("g1", "admin", "domain1") //nolint:errcheck
	enf.AddRoleForUser("u1", "g1", "domain1")    //nolint:errcheck

	if !enf.roleManager.HasLink("u1", "admin", "domain1") {
		t.Error("u1 should inherit admin via g1 in domain1")
	}
	if enf.roleManager.HasLink("u1", "admin", "domain2") {
		t.Error("u1 should not inherit admin in domain2")
	}
	if !enf.roleManager.HasLink("u4", "admin", "domain2") {
		t.Error("u4 is admin directly in domain2")
	}

	if _, err := enf.DeleteRoleForUser("g1", "admin", "domain1"); err != nil {
		t.Fatalf("DeleteRoleForUser: %v", err)
	}
	if enf.roleManager.HasLink("u1", "admin", "domain1") {
		t.Error("u1 should lose admin in domain1 after deleting g1 -> admin")
	}
}

func TestEnforcerBoundedHierarchyDepth(t *testing.T) {
	rm := memory.NewRoleManager(3)
	rm.AddLink("u", "a", "")
	rm.AddLink("a", "b", "")
	rm.AddLink("b", "c", "")
	rm.AddLink("c", "d", "")

	if !rm.HasLink("u", "c", "") {
		t.Error("u -> c is 3 steps, should be within budget 3")
	}
	if rm.HasLink("u", "d", "") {
		t.Error("u -> d is 4 steps, should exceed budget 3")
	}
}
