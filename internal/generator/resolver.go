package generator

import (
	"fmt"
	"math/rand"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// Record is one generated row: attribute name to value.
type Record map[string]any

// LinkResolver owns the cross-entity bookkeeping for one invocation: it
// validates link targets, builds the dependency graph over entity keys, and
// stores generated records so link attributes can be resolved by sampling.
// It holds no generation logic. A resolver's registry belongs to exactly
// one invocation; reuse across unrelated schema sets corrupts resolution,
// so call Reset or build a fresh one.
type LinkResolver struct {
	registry map[string][]Record
	rng      *rand.Rand
}

func NewLinkResolver(rng *rand.Rand) *LinkResolver {
	return &LinkResolver{
		registry: make(map[string][]Record),
		rng:      rng,
	}
}

// Reset discards all registered records so the resolver can serve a new
// invocation.
func (r *LinkResolver) Reset() {
	r.registry = make(map[string][]Record)
}

// ValidateAllLinks is the advisory pre-flight scan: it confirms that every
// link attribute in every schema points at an existing schema, entity, and
// attribute, and returns the full list of problems instead of stopping at
// the first. The caller decides whether to abort.
func (r *LinkResolver) ValidateAllLinks(schemas []*schema.SystemSchema) []error {
	byName := schemasByName(schemas)

	var errs []error
	for _, s := range schemas {
		for _, e := range s.Entities {
			for _, a := range e.Attributes {
				if a.Link == "" {
					continue
				}
				owner := schema.EntityKey(s.Name, e.Name)
				ref, err := schema.ParseLinkSpec(a.Link)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", owner, a.Name, err))
					continue
				}
				target, ok := byName[ref.Schema]
				if !ok {
					errs = append(errs, fmt.Errorf("%s.%s: link %s references unknown schema %q", owner, a.Name, ref, ref.Schema))
					continue
				}
				entity := target.Entity(ref.Entity)
				if entity == nil {
					errs = append(errs, fmt.Errorf("%s.%s: link %s references unknown entity %q", owner, a.Name, ref, ref.EntityKey()))
					continue
				}
				if entity.Attribute(ref.Attribute) == nil {
					errs = append(errs, fmt.Errorf("%s.%s: link %s references unknown attribute %q on %s", owner, a.Name, ref, ref.Attribute, ref.EntityKey()))
				}
			}
		}
	}
	return errs
}

// BuildDependencyGraph builds the directed graph over every entity in the
// supplied schemas and immediately computes its topological order. This is
// the single enforcement point for acyclicity: a malformed link, an unknown
// target, or a cycle is a hard failure here, before any record exists.
func (r *LinkResolver) BuildDependencyGraph(schemas []*schema.SystemSchema) (*DependencyGraph, []string, error) {
	byName := schemasByName(schemas)
	graph := NewDependencyGraph()

	// Seed nodes in declaration order so entities without links still get
	// generated and the ordering tie-break is stable.
	for _, s := range schemas {
		for _, e := range s.Entities {
			graph.AddNode(schema.EntityKey(s.Name, e.Name))
		}
	}

	for _, s := range schemas {
		for _, e := range s.Entities {
			owner := schema.EntityKey(s.Name, e.Name)
			for _, a := range e.Attributes {
				if a.Link == "" {
					continue
				}
				ref, err := schema.ParseLinkSpec(a.Link)
				if err != nil {
					return nil, nil, fmt.Errorf("%s.%s: %w", owner, a.Name, err)
				}
				target, ok := byName[ref.Schema]
				if !ok {
					return nil, nil, fmt.Errorf("%s.%s: link %s references unknown schema %q", owner, a.Name, ref, ref.Schema)
				}
				entity := target.Entity(ref.Entity)
				if entity == nil {
					return nil, nil, fmt.Errorf("%s.%s: link %s references unknown entity %q", owner, a.Name, ref, ref.EntityKey())
				}
				if entity.Attribute(ref.Attribute) == nil {
					return nil, nil, fmt.Errorf("%s.%s: link %s references unknown attribute %q on %s", owner, a.Name, ref, ref.Attribute, ref.EntityKey())
				}
				if dep := ref.EntityKey(); dep != owner {
					graph.AddDependency(owner, dep)
				}
			}
		}
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, nil, err
	}
	return graph, order, nil
}

// RegisterEntity stores a freshly generated record list under its entity
// key, making it available as a link target.
func (r *LinkResolver) RegisterEntity(schemaName, entityName string, records []Record) {
	r.registry[schema.EntityKey(schemaName, entityName)] = records
}

// Registered reports whether records exist for the given entity key.
func (r *LinkResolver) Registered(entityKey string) bool {
	_, ok := r.registry[entityKey]
	return ok
}

// ResolveLink samples one value, with replacement, from the already
// generated values of the link target. Resolving against an unregistered or
// empty entity is an ordering bug if the dependency graph was honored, so
// it is an error, never a retry.
func (r *LinkResolver) ResolveLink(spec string) (any, error) {
	ref, err := schema.ParseLinkSpec(spec)
	if err != nil {
		return nil, err
	}

	key := ref.EntityKey()
	records, ok := r.registry[key]
	if !ok {
		return nil, fmt.Errorf("cannot resolve link %s: entity %s has not been generated yet", ref, key)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot resolve link %s: entity %s has no records", ref, key)
	}

	values := make([]any, 0, len(records))
	for _, record := range records {
		if v, ok := record[ref.Attribute]; ok && v != nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot resolve link %s: entity %s has no values for attribute %q", ref, key, ref.Attribute)
	}

	return values[r.rng.Intn(len(values))], nil
}

func schemasByName(schemas []*schema.SystemSchema) map[string]*schema.SystemSchema {
	byName := make(map[string]*schema.SystemSchema, len(schemas))
	for _, s := range schemas {
		byName[s.Name] = s
	}
	return byName
}
