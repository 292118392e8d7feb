package memory

import (
	"testing"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

func newTestPolicyStore() (*model.Model, *PolicyStore) {
	m := model.New()
	m.AddDef(model.SectionPolicy, "p", "sub, obj, act")
	m.AddDef(model.SectionRole, "g", "_, _")
	return m, NewPolicyStore(m)
}

func TestPolicyStoreAddAndHasPolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	rule := []string{"alice", "data1", "read"}

	if !ps.AddPolicy(model.SectionPolicy, "p", rule) {
		t.Fatal("AddPolicy should succeed for a new rule")
	}
	if ps.AddPolicy(model.SectionPolicy, "p", rule) {
		t.Fatalf("AddPolicy should reject the duplicate rule %s", ruleKeyString(rule))
	}
	if !ps.HasPolicy(model.SectionPolicy, "p", rule) {
		t.Error("HasPolicy should find the stored rule")
	}
	if ps.HasPolicy(model.SectionPolicy, "p", []string{"bob", "data1", "read"}) {
		t.Error("HasPolicy should not find an unrelated rule")
	}
}

func TestPolicyStoreAddPoliciesIsAtomic(t *testing.T) {
	_, ps := newTestPolicyStore()
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"})

	rules := [][]string{
		{"bob", "data2", "write"},
		{"alice", "data1", "read"}, // duplicate, must abort the whole batch
	}
	added := ps.AddPolicies(model.SectionPolicy, "p", rules)
	if added != nil {
		t.Fatalf("AddPolicies should reject the whole batch on any duplicate, got %v", added)
	}
	if ps.HasPolicy(model.SectionPolicy, "p", rules[0]) {
		t.Error("no rule from the aborted batch should have been added")
	}
}

func TestPolicyStoreRemovePolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	rule := []string{"alice", "data1", "read"}
	ps.AddPolicy(model.SectionPolicy, "p", rule)

	if !ps.RemovePolicy(model.SectionPolicy, "p", rule) {
		t.Fatal("RemovePolicy should find and remove the rule")
	}
	if ps.HasPolicy(model.SectionPolicy, "p", rule) {
		t.Error("removed rule should no longer be present")
	}
	if ps.RemovePolicy(model.SectionPolicy, "p", rule) {
		t.Error("removing an already-removed rule should report false")
	}
}

func TestPolicyStoreGetFilteredPolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"bob", "data1", "write"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data2", "read"})

	got := ps.GetFilteredPolicy(model.SectionPolicy, "p", 1, "data1")
	if len(got) != 2 {
		t.Fatalf("GetFilteredPolicy(obj=data1) = %v, want 2 rules", got)
	}

	got = ps.GetFilteredPolicy(model.SectionPolicy, "p", 0, "alice", "", "read")
	if len(got) != 2 {
		t.Fatalf("GetFilteredPolicy(sub=alice, act=read) = %v, want 2 rules", got)
	}
}

func TestPolicyStoreRemoveFilteredPolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"bob", "data1", "write"})

	removed := ps.RemoveFilteredPolicy(model.SectionPolicy, "p", 1, "data1")
	if len(removed) != 2 {
		t.Fatalf("RemoveFilteredPolicy = %v, want both rules removed", removed)
	}
	if len(ps.GetPolicy(model.SectionPolicy, "p")) != 0 {
		t.Error("policy store should be empty after removing every rule")
	}
	if ps.HasPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"}) {
		t.Error("dedup index should be cleared alongside the removed rule")
	}
}

func TestPolicyStoreGetValuesForFieldInPolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"bob", "data1", "write"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"carol", "data2", "read"})

	got := ps.GetValuesForFieldInPolicy(model.SectionPolicy, "p", 2)
	if len(got) != 2 || got[0] != "read" || got[1] != "write" {
		t.Errorf("GetValuesForFieldInPolicy(act) = %v, want [read write]", got)
	}
}

func TestPolicyStoreGetValuesForFieldInPolicyIsSorted(t *testing.T) {
	_, ps := newTestPolicyStore()
	// Insertion order ("write" before "read") differs from sort order,
	// so a dedup-only implementation would return [write read].
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "write"})
	ps.AddPolicy(model.SectionPolicy, "p", []string{"bob", "data1", "read"})

	got := ps.GetValuesForFieldInPolicy(model.SectionPolicy, "p", 2)
	if len(got) != 2 || got[0] != "read" || got[1] != "write" {
		t.Errorf("GetValuesForFieldInPolicy(act) = %v, want [read write]", got)
	}
}

func TestPolicyStoreClearPolicy(t *testing.T) {
	_, ps := newTestPolicyStore()
	ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"})
	ps.AddPolicy(model.SectionRole, "g", []string{"alice", "admin"})

	ps.ClearPolicy()

	if len(ps.GetPolicy(model.SectionPolicy, "p")) != 0 {
		t.Error("ClearPolicy should drop policy rules")
	}
	if len(ps.GetPolicy(model.SectionRole, "g")) != 0 {
		t.Error("ClearPolicy should drop grouping rules")
	}
	if !ps.AddPolicy(model.SectionPolicy, "p", []string{"alice", "data1", "read"}) {
		t.Error("the dedup index should also be cleared so a prior rule can be re-added")
	}
}
