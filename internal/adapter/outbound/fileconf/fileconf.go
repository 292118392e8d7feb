// Package fileconf is the file-backed configuration adapter: it reads
// the PERM model file (INI-like) and the CSV-like policy file spec.md
// §6 describes, external collaborators the core model loader never
// parses itself.
package fileconf

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/Sentinel-Gate/permkit/internal/domain/model"
)

// sectionNames maps a reserved model section to its INI header.
var sectionNames = map[string]string{
	model.SectionRequest: "request_definition",
	model.SectionPolicy:  "policy_definition",
	model.SectionRole:    "role_definition",
	model.SectionEffect:  "policy_effect",
	model.SectionMatcher: "matchers",
}

// LoadModelFile reads path as an INI-style PERM model file and builds a
// *model.Model from it.
func LoadModelFile(path string) (*model.Model, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model file %s: %v", model.ErrParsingFailure, path, err)
	}

	sources := make(map[string]model.SectionSource, len(sectionNames))
	for sec, iniName := range sectionNames {
		if !cfg.HasSection(iniName) {
			continue
		}
		s := cfg.Section(iniName)
		sources[sec] = func(key string) (string, bool) {
			if !s.HasKey(key) {
				return "", false
			}
			return s.Key(key).String(), true
		}
	}
	return model.LoadFromSections(sources)
}

// LoadPolicyFile reads path line by line as a CSV-like policy file and
// loads every line into m via LoadPolicyLine.
func LoadPolicyFile(path string, m *model.Model) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening policy file %s: %v", model.ErrParsingFailure, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := m.LoadPolicyLine(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// SavePolicyFile writes every rule in every p/g assertion of m to path,
// one "ptype, v1, v2, ..." line per rule, p sections before g sections
// in model section order.
func SavePolicyFile(path string, m *model.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating policy file %s: %v", model.ErrParsingFailure, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, sec := range []string{model.SectionPolicy, model.SectionRole} {
		assertions := m.Section(sec)
		for ptype, a := range assertions {
			for _, rule := range a.Policy {
				if _, err := fmt.Fprintf(w, "%s, %s\n", ptype, strings.Join(rule, ", ")); err != nil {
					return err
				}
			}
		}
	}
	return w.Flush()
}
