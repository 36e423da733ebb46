package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"time"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/manifest"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// DefaultSeed is used for any schema that does not carry its own seed.
const DefaultSeed = 19700101

// ValueProvider is the external value-generation engine boundary. Generate
// returns a deferred value exactly when the attribute is a link; the core
// resolves those itself. RetryUntilUnique is the engine's bounded search
// for a value outside the seen set.
type ValueProvider interface {
	Generate(attr *schema.AttributeDefinition) (GeneratedValue, error)
	RetryUntilUnique(gen func() (any, error), seen map[any]bool) (any, error)
}

// GeneratedSystem is the result of generating one system schema: every
// entity's records plus the run metadata that makes the run reproducible.
type GeneratedSystem struct {
	Schema   *schema.SystemSchema
	Entities map[string][]Record
	Metadata *manifest.Metadata
}

// Generator synthesizes records entity by entity in dependency order,
// delegating scalar production to a ValueProvider and link resolution to
// its LinkResolver. One Generator serves one invocation at a time;
// independent invocations need their own Generator.
type Generator struct {
	resolver    *LinkResolver
	newProvider func(seed int64) ValueProvider
	defaultSeed int64
	providers   map[string]ValueProvider
}

// New builds a Generator around a provider factory. The factory is called
// once per schema with that schema's effective seed so every system gets
// its own deterministic value stream.
func New(defaultSeed int64, newProvider func(seed int64) ValueProvider) *Generator {
	g := &Generator{
		defaultSeed: defaultSeed,
		newProvider: newProvider,
	}
	g.beginInvocation()
	return g
}

// beginInvocation discards all per-invocation state: the resolver registry,
// the sampling stream, and the per-schema providers. Without this a reused
// Generator would leak records between unrelated schema sets.
func (g *Generator) beginInvocation() {
	g.resolver = NewLinkResolver(rand.New(rand.NewSource(g.defaultSeed)))
	g.providers = make(map[string]ValueProvider)
}

// Resolver exposes the invocation's link resolver, mainly for advisory
// validation ahead of generation.
func (g *Generator) Resolver() *LinkResolver {
	return g.resolver
}

func (g *Generator) effectiveSeed(s *schema.SystemSchema) int64 {
	if s.Seed != nil {
		return *s.Seed
	}
	return g.defaultSeed
}

func (g *Generator) providerFor(s *schema.SystemSchema) ValueProvider {
	p, ok := g.providers[s.Name]
	if !ok {
		p = g.newProvider(g.effectiveSeed(s))
		g.providers[s.Name] = p
	}
	return p
}

// GenerateEntity produces entity.Count records, one value per attribute.
// Unique attributes go through the provider's bounded retry; deferred
// results are resolved through the link resolver. Any failure aborts the
// whole entity so no partial, referentially inconsistent record set exists.
func (g *Generator) GenerateEntity(schemaName string, entity *schema.EntityDefinition, provider ValueProvider) ([]Record, error) {
	key := schema.EntityKey(schemaName, entity.Name)

	// Uniqueness is tracked per attribute per entity per invocation.
	seen := make(map[string]map[any]bool)
	for _, a := range entity.Attributes {
		if a.Unique {
			seen[a.Name] = make(map[any]bool)
		}
	}

	records := make([]Record, 0, entity.Count)
	for i := 0; i < entity.Count; i++ {
		record := make(Record, len(entity.Attributes))

		for ai := range entity.Attributes {
			attr := &entity.Attributes[ai]

			var value any
			var err error
			if attr.Unique {
				value, err = provider.RetryUntilUnique(func() (any, error) {
					return g.produce(provider, attr)
				}, seen[attr.Name])
				if err == nil {
					seen[attr.Name][value] = true
				}
			} else {
				value, err = g.produce(provider, attr)
			}

			if err != nil {
				if attr.Link != "" && !attr.Required {
					// A failed resolution on an optional link just leaves
					// the field empty.
					value = nil
				} else {
					return nil, fmt.Errorf("entity %s: attribute %q: %w", key, attr.Name, err)
				}
			}
			record[attr.Name] = value
		}

		for _, attr := range entity.Attributes {
			if attr.Required && isEmpty(record[attr.Name]) {
				return nil, fmt.Errorf("entity %s: required attribute %q is empty", key, attr.Name)
			}
		}

		records = append(records, record)
	}

	return records, nil
}

// produce runs one engine call, resolving a deferred result via the link
// resolver.
func (g *Generator) produce(provider ValueProvider, attr *schema.AttributeDefinition) (any, error) {
	gv, err := provider.Generate(attr)
	if err != nil {
		return nil, err
	}
	if gv.IsDeferred() {
		return g.resolver.ResolveLink(attr.Link)
	}
	return gv.Value(), nil
}

// GenerateSystem generates every entity of one schema in dependency order.
// Links must stay inside the schema; cross-schema links need
// GenerateMultipleSystems.
func (g *Generator) GenerateSystem(s *schema.SystemSchema) (*GeneratedSystem, error) {
	results, err := g.run([]*schema.SystemSchema{s})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// GenerateMultipleSystems validates and generates all supplied schemas in
// one combined dependency order, so any schema may link into any other.
// Every schema gets a result, even one with no entities.
func (g *Generator) GenerateMultipleSystems(schemas []*schema.SystemSchema) ([]*GeneratedSystem, error) {
	return g.run(schemas)
}

func (g *Generator) run(schemas []*schema.SystemSchema) ([]*GeneratedSystem, error) {
	g.beginInvocation()

	if err := schema.ValidateSet(schemas); err != nil {
		return nil, err
	}
	if errs := g.resolver.ValidateAllLinks(schemas); len(errs) > 0 {
		return nil, fmt.Errorf("link validation failed: %w", errors.Join(errs...))
	}

	_, order, err := g.resolver.BuildDependencyGraph(schemas)
	if err != nil {
		return nil, err
	}

	byName := schemasByName(schemas)
	results := make(map[string]*GeneratedSystem, len(schemas))
	for _, s := range schemas {
		results[s.Name] = &GeneratedSystem{
			Schema:   s,
			Entities: make(map[string][]Record, len(s.Entities)),
		}
	}

	for _, key := range order {
		schemaName, entityName, ok := splitEntityKey(key)
		if !ok {
			return nil, fmt.Errorf("malformed entity key %q in generation order", key)
		}
		s := byName[schemaName]
		entity := s.Entity(entityName)

		records, err := g.GenerateEntity(schemaName, entity, g.providerFor(s))
		if err != nil {
			return nil, err
		}

		// Register before any dependent entity starts, so links into this
		// entity resolve against the full record set.
		g.resolver.RegisterEntity(schemaName, entityName, records)
		results[schemaName].Entities[entityName] = records
	}

	now := time.Now().UTC()
	out := make([]*GeneratedSystem, 0, len(schemas))
	for _, s := range schemas {
		r := results[s.Name]
		r.Metadata = g.buildMetadata(s, r.Entities, now)
		out = append(out, r)
	}
	return out, nil
}

func (g *Generator) buildMetadata(s *schema.SystemSchema, entities map[string][]Record, generatedAt time.Time) *manifest.Metadata {
	counts := make(map[string]int, len(entities))
	total := 0
	for name, records := range entities {
		counts[name] = len(records)
		total += len(records)
	}
	return &manifest.Metadata{
		GeneratedAt:   generatedAt,
		SeedUsed:      g.effectiveSeed(s),
		SchemaSeed:    s.Seed,
		TotalRecords:  total,
		EntityCounts:  counts,
		SchemaHash:    manifest.SchemaHash(s),
		OutputFormats: append([]string(nil), s.Output.Formats...),
		OutputPath:    s.Output.Path,
	}
}

func splitEntityKey(key string) (schemaName, entityName string, ok bool) {
	idx := strings.Index(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}
