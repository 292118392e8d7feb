// Package model implements the PERM model loader (C4): it turns parsed
// configuration sections into a map of typed Assertions, normalizing
// matcher/effect expressions along the way.
package model

import (
	"fmt"
	"strings"
)

// Reserved section names, in model-file shorthand.
const (
	SectionRequest = "r"
	SectionPolicy  = "p"
	SectionRole    = "g"
	SectionEffect  = "e"
	SectionMatcher = "m"
)

var sectionOrder = []string{SectionRequest, SectionPolicy, SectionEffect, SectionMatcher, SectionRole}

// Model is a section -> key -> Assertion table, built once at load time
// and mutated thereafter only through the policy-store operations in
// package policy.
type Model struct {
	data map[string]map[string]*Assertion
}

// New returns an empty Model.
func New() *Model {
	return &Model{data: make(map[string]map[string]*Assertion)}
}

// Section returns the key->Assertion map for sec, or nil if the model
// has no entries in that section.
func (m *Model) Section(sec string) map[string]*Assertion {
	return m.data[sec]
}

// Get returns the Assertion stored at (sec, key), or nil if absent.
func (m *Model) Get(sec, key string) *Assertion {
	sm := m.data[sec]
	if sm == nil {
		return nil
	}
	return sm[key]
}

// HasSection reports whether sec has any assertions at all.
func (m *Model) HasSection(sec string) bool {
	return len(m.data[sec]) > 0
}

// AddDef creates or replaces the Assertion at (sec, key) from value. It
// returns false without effect when value is empty (the sentinel the
// section-loader in LoadFromSections uses to detect "no more numbered
// entries"). For r/p sections, value is split on ", " into tokens
// qualified as "{key}_{field}"; for m/e/g, value is normalized with
// RemoveComments then EscapeAssertion.
func (m *Model) AddDef(sec, key, value string) bool {
	if value == "" {
		return false
	}

	a := &Assertion{Key: key, Value: value}

	switch sec {
	case SectionRequest, SectionPolicy:
		fields := strings.Split(value, ", ")
		a.Tokens = make([]string, len(fields))
		for i, f := range fields {
			a.Tokens[i] = key + "_" + f
		}
	default:
		a.Value = EscapeAssertion(RemoveComments(value))
	}

	if m.data[sec] == nil {
		m.data[sec] = make(map[string]*Assertion)
	}
	m.data[sec][key] = a
	return true
}

// EnsureAssertion returns the Assertion at (sec, key), creating a bare
// one (no Value, no Tokens) if absent. Used by the policy store to
// materialize a (section, ptype) entry the first time a rule is added
// to it, independent of model-file loading.
func (m *Model) EnsureAssertion(sec, key string) *Assertion {
	if m.data[sec] == nil {
		m.data[sec] = make(map[string]*Assertion)
	}
	a, ok := m.data[sec][key]
	if !ok {
		a = &Assertion{Key: key}
		m.data[sec][key] = a
	}
	return a
}

// SectionSource supplies a section's raw string values, keyed by the
// section's numbered entry name ("p", "p2", "p3", ...). It is the
// boundary between a config adapter (ini, yaml, programmatic) and the
// model loader: an adapter parses a file into this shape and hands it to
// LoadFromSections, keeping the file-format parser itself out of the
// core (spec.md §1).
type SectionSource func(numberedKey string) (value string, ok bool)

// LoadFromSections builds a Model from one SectionSource per reserved
// section, enumerating numbered keys ("r", "r2", "r3", ...) until the
// first missing one, in section order r, p, e, m, g.
func LoadFromSections(sources map[string]SectionSource) (*Model, error) {
	m := New()
	for _, sec := range sectionOrder {
		src, ok := sources[sec]
		if !ok {
			continue
		}
		for i := 1; ; i++ {
			key := sectionKey(sec, i)
			value, present := src(key)
			if !present || !m.AddDef(sec, key, value) {
				break
			}
		}
	}
	return m, nil
}

func sectionKey(sec string, i int) string {
	if i == 1 {
		return sec
	}
	return fmt.Sprintf("%s%d", sec, i)
}

// LoadPolicyLine parses one CSV-like policy record ("ptype, v1, v2, ...")
// and appends it to the matching assertion's Policy, creating a bare
// Assertion for the section/ptype if one does not already exist. Empty
// lines and lines starting with "#" are skipped silently. Returns
// ErrParsingFailure if the line has fewer than 2 comma-separated tokens.
func (m *Model) LoadPolicyLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	tokens := strings.Split(line, ",")
	for i, t := range tokens {
		tokens[i] = strings.TrimSpace(t)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("%w: policy line %q has fewer than 2 fields", ErrParsingFailure, line)
	}

	ptype := tokens[0]
	if ptype == "" {
		return fmt.Errorf("%w: policy line %q has an empty ptype", ErrParsingFailure, line)
	}
	sec := ptype[:1]
	a := m.EnsureAssertion(sec, ptype)
	a.Policy = append(a.Policy, append([]string(nil), tokens[1:]...))
	return nil
}
