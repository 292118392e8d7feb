package fileconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

func TestLoadModelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.conf")
	if err := os.WriteFile(path, []byte(testModel), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadModelFile(path)
	if err != nil {
		t.Fatalf("LoadModelFile: %v", err)
	}
	if got := m.Get(model.SectionRequest, "r"); got == nil || len(got.Tokens) != 3 {
		t.Fatalf("request assertion = %+v", got)
	}
	if got := m.Get(model.SectionMatcher, "m").Value; got != "g(r_sub, p_sub) && r_obj == p_obj && r_act == p_act" {
		t.Errorf("matcher = %q", got)
	}
	if !m.HasSection(model.SectionRole) {
		t.Error("role_definition should have loaded")
	}
}

func TestLoadAndSavePolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	content := "p, alice, data1, read\np, bob, data2, write\n# a comment\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := model.New()
	m.AddDef(model.SectionPolicy, "p", "sub, obj, act")
	if err := LoadPolicyFile(path, m); err != nil {
		t.Fatalf("LoadPolicyFile: %v", err)
	}
	if len(m.Get(model.SectionPolicy, "p").Policy) != 2 {
		t.Fatalf("expected 2 rules, got %v", m.Get(model.SectionPolicy, "p").Policy)
	}

	outPath := filepath.Join(dir, "out.csv")
	if err := SavePolicyFile(outPath, m); err != nil {
		t.Fatalf("SavePolicyFile: %v", err)
	}

	reloaded := model.New()
	reloaded.AddDef(model.SectionPolicy, "p", "sub, obj, act")
	if err := LoadPolicyFile(outPath, reloaded); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Get(model.SectionPolicy, "p").Policy) != 2 {
		t.Fatalf("expected 2 rules after round-trip, got %v", reloaded.Get(model.SectionPolicy, "p").Policy)
	}
}
