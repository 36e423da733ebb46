package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SystemSchema describes one named system: a set of entity definitions plus
// the output configuration for the records generated from them. Schemas are
// built once per invocation and must not be mutated while generation runs.
type SystemSchema struct {
	Name     string       `yaml:"name" json:"name"`
	Version  string       `yaml:"version" json:"version"`
	Seed     *int64       `yaml:"seed" json:"seed"` // nil means "use the generator default", distinct from an explicit 0
	Output   OutputConfig `yaml:"output" json:"output"`
	Entities EntityList   `yaml:"entities" json:"entities"`
}

type OutputConfig struct {
	Path    string   `yaml:"path" json:"path"`
	Formats []string `yaml:"formats" json:"formats"`
}

type EntityDefinition struct {
	Name       string        `yaml:"-" json:"name"`
	Count      int           `yaml:"count" json:"count"`
	Attributes AttributeList `yaml:"attributes" json:"attributes"`
}

type AttributeDefinition struct {
	Name        string         `yaml:"-" json:"name"`
	Generator   string         `yaml:"generator" json:"generator"`
	Unique      bool           `yaml:"unique" json:"unique"`
	Required    bool           `yaml:"required" json:"required"`
	Link        string         `yaml:"link" json:"link"`
	Constraints map[string]any `yaml:"constraints" json:"constraints"`
}

// EntityList keeps entities in declaration order. YAML mappings decode into
// unordered Go maps, but declaration order feeds the first-seen tie-break of
// the topological sort, so the list is decoded from the raw mapping node.
type EntityList []EntityDefinition

func (l *EntityList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("entities must be a mapping, got %s", nodeKind(node))
	}
	for i := 0; i < len(node.Content); i += 2 {
		var e EntityDefinition
		if err := node.Content[i+1].Decode(&e); err != nil {
			return fmt.Errorf("entity %q: %w", node.Content[i].Value, err)
		}
		e.Name = node.Content[i].Value
		*l = append(*l, e)
	}
	return nil
}

// AttributeList keeps attributes in declaration order, for the same reason
// as EntityList and so row-oriented writers emit stable column order.
type AttributeList []AttributeDefinition

func (l *AttributeList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("attributes must be a mapping, got %s", nodeKind(node))
	}
	for i := 0; i < len(node.Content); i += 2 {
		var a AttributeDefinition
		if err := node.Content[i+1].Decode(&a); err != nil {
			return fmt.Errorf("attribute %q: %w", node.Content[i].Value, err)
		}
		a.Name = node.Content[i].Value
		*l = append(*l, a)
	}
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown node"
	}
}

// EntityKey is the graph-node identity of an entity within one invocation.
func EntityKey(schemaName, entityName string) string {
	return schemaName + "." + entityName
}

// LinkRef is a parsed link target: schema_name.entity_name.attribute_name.
type LinkRef struct {
	Schema    string
	Entity    string
	Attribute string
}

func (r LinkRef) EntityKey() string {
	return EntityKey(r.Schema, r.Entity)
}

func (r LinkRef) String() string {
	return r.Schema + "." + r.Entity + "." + r.Attribute
}

// ParseLinkSpec parses a link reference. The grammar is exactly three
// non-empty dot-separated components; any other shape is an error.
func ParseLinkSpec(spec string) (LinkRef, error) {
	parts := strings.Split(spec, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return LinkRef{}, fmt.Errorf("invalid link spec %q: expected schema_name.entity_name.attribute_name", spec)
	}
	return LinkRef{Schema: parts[0], Entity: parts[1], Attribute: parts[2]}, nil
}

// Entity returns the named entity definition, or nil.
func (s *SystemSchema) Entity(name string) *EntityDefinition {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i]
		}
	}
	return nil
}

// Attribute returns the named attribute definition, or nil.
func (e *EntityDefinition) Attribute(name string) *AttributeDefinition {
	for i := range e.Attributes {
		if e.Attributes[i].Name == name {
			return &e.Attributes[i]
		}
	}
	return nil
}

// TotalRecords is the sum of record counts across all entities.
func (s *SystemSchema) TotalRecords() int {
	total := 0
	for _, e := range s.Entities {
		total += e.Count
	}
	return total
}

// Rescale multiplies every entity's record count, e.g. for batch multipliers.
// It is the one sanctioned mutation and must happen before generation starts.
func (s *SystemSchema) Rescale(multiplier int) {
	if multiplier <= 0 {
		return
	}
	for i := range s.Entities {
		s.Entities[i].Count *= multiplier
	}
}

// Validate checks the structural shape of one schema: name present,
// non-negative counts, generators set, and well-formed link specs.
// Link target existence is checked later against the full schema set.
func (s *SystemSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema is missing a name")
	}
	// Dots separate the components of entity keys and link specs, so
	// they cannot appear inside schema or entity names.
	if strings.Contains(s.Name, ".") {
		return fmt.Errorf("schema name %q must not contain '.'", s.Name)
	}
	for _, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("schema %s: entity is missing a name", s.Name)
		}
		if strings.Contains(e.Name, ".") {
			return fmt.Errorf("schema %s: entity name %q must not contain '.'", s.Name, e.Name)
		}
		if e.Count < 0 {
			return fmt.Errorf("entity %s: record count %d is negative", EntityKey(s.Name, e.Name), e.Count)
		}
		for _, a := range e.Attributes {
			if a.Generator == "" && a.Link == "" {
				return fmt.Errorf("entity %s: attribute %q has neither generator nor link", EntityKey(s.Name, e.Name), a.Name)
			}
			if a.Link != "" {
				if _, err := ParseLinkSpec(a.Link); err != nil {
					return fmt.Errorf("entity %s: attribute %q: %w", EntityKey(s.Name, e.Name), a.Name, err)
				}
			}
		}
	}
	return nil
}

// ValidateSet validates each schema and rejects duplicate schema names
// within one invocation.
func ValidateSet(schemas []*SystemSchema) error {
	seen := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate schema name %q in one invocation", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
