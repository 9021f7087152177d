package config

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// MilestoneType is one of the six closed classification types a Phase 2
// summarization response may assign to a milestone.
type MilestoneType string

// The six recognized milestone types. The LLM contract must not widen this
// vocabulary — unrecognized values are rejected during response validation.
const (
	MilestoneTypeDiscovery      MilestoneType = "discovery"
	MilestoneTypeImplementation MilestoneType = "implementation"
	MilestoneTypeBugfix         MilestoneType = "bugfix"
	MilestoneTypeRefactor       MilestoneType = "refactor"
	MilestoneTypeDecision       MilestoneType = "decision"
	MilestoneTypeConfiguration  MilestoneType = "configuration"
)

// IsValid reports whether t is one of the six recognized milestone types.
func (t MilestoneType) IsValid() bool {
	switch t {
	case MilestoneTypeDiscovery, MilestoneTypeImplementation, MilestoneTypeBugfix,
		MilestoneTypeRefactor, MilestoneTypeDecision, MilestoneTypeConfiguration:
		return true
	default:
		return false
	}
}

// BuiltinCatalog holds the compiled-in type definitions and closed concept
// vocabulary shared by the response validator and the LLM system prompt.
type BuiltinCatalog struct {
	TypeDefinitions map[MilestoneType]string `yaml:"typeDefinitions"`
	Concepts        []string                 `yaml:"concepts"`
}

// ConceptSet returns the closed concept vocabulary as a lookup set.
func (c *BuiltinCatalog) ConceptSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Concepts))
	for _, concept := range c.Concepts {
		set[concept] = struct{}{}
	}
	return set
}

var (
	catalog     *BuiltinCatalog
	catalogOnce sync.Once
)

// GetBuiltinCatalog returns the singleton built-in catalog (thread-safe,
// lazily parsed from the embedded vocabulary.yaml asset).
func GetBuiltinCatalog() *BuiltinCatalog {
	catalogOnce.Do(func() {
		var c BuiltinCatalog
		if err := yaml.Unmarshal(vocabularyYAML, &c); err != nil {
			// The embedded asset is part of the binary; a parse failure here
			// means the build itself is broken, not a runtime condition.
			panic("config: embedded vocabulary.yaml is malformed: " + err.Error())
		}
		catalog = &c
	})
	return catalog
}
