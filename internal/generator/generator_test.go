package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/manifest"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

func newTestGenerator() *Generator {
	return New(7, func(seed int64) ValueProvider { return NewFaker(seed) })
}

func seedPtr(v int64) *int64 { return &v }

// Scenario: schema S with A (5 records, no links) and B (10 records, one
// attribute linking to S.A.id).
func chainSchema() *schema.SystemSchema {
	return &schema.SystemSchema{
		Name: "S",
		Seed: seedPtr(11),
		Entities: schema.EntityList{
			{Name: "B", Count: 10, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid", Unique: true, Required: true},
				{Name: "link", Link: "S.A.id", Required: true},
			}},
			{Name: "A", Count: 5, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid", Unique: true, Required: true},
			}},
		},
	}
}

func TestGenerateSystemLinearChain(t *testing.T) {
	s := chainSchema()
	result, err := newTestGenerator().GenerateSystem(s)
	require.NoError(t, err)

	require.Len(t, result.Entities["A"], 5)
	require.Len(t, result.Entities["B"], 10)

	ids := make(map[any]bool, 5)
	for _, record := range result.Entities["A"] {
		ids[record["id"]] = true
	}
	require.Len(t, ids, 5)

	for _, record := range result.Entities["B"] {
		assert.True(t, ids[record["link"]], "B.link value %v not drawn from A.id", record["link"])
	}

	meta := result.Metadata
	require.NotNil(t, meta)
	assert.Equal(t, 15, meta.TotalRecords)
	assert.Equal(t, map[string]int{"A": 5, "B": 10}, meta.EntityCounts)
	assert.Equal(t, int64(11), meta.SeedUsed)
	require.NotNil(t, meta.SchemaSeed)
	assert.Equal(t, int64(11), *meta.SchemaSeed)
}

func TestGenerateMultipleSystemsCrossSchema(t *testing.T) {
	users := &schema.SystemSchema{
		Name: "U",
		Entities: schema.EntityList{
			{Name: "users", Count: 3, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid", Unique: true, Required: true},
			}},
		},
	}
	orders := &schema.SystemSchema{
		Name: "O",
		Entities: schema.EntityList{
			{Name: "orders", Count: 8, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid", Unique: true, Required: true},
				{Name: "user_id", Link: "U.users.id", Required: true},
			}},
		},
	}

	results, err := newTestGenerator().GenerateMultipleSystems([]*schema.SystemSchema{users, orders})
	require.NoError(t, err)
	require.Len(t, results, 2)

	userIDs := make(map[any]bool, 3)
	for _, record := range results[0].Entities["users"] {
		userIDs[record["id"]] = true
	}
	require.Len(t, userIDs, 3)

	orderRecords := results[1].Entities["orders"]
	require.Len(t, orderRecords, 8)
	for _, record := range orderRecords {
		assert.True(t, userIDs[record["user_id"]], "order references unknown user %v", record["user_id"])
	}
}

func TestGenerateSystemCycleFails(t *testing.T) {
	s := &schema.SystemSchema{
		Name: "S",
		Entities: schema.EntityList{
			{Name: "A", Count: 1, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
				{Name: "b_ref", Link: "S.B.id"},
			}},
			{Name: "B", Count: 1, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
				{Name: "a_ref", Link: "S.A.id"},
			}},
		},
	}

	_, err := newTestGenerator().GenerateSystem(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S.A")
	assert.Contains(t, err.Error(), "S.B")
}

func TestUniquenessExhaustionFails(t *testing.T) {
	s := &schema.SystemSchema{
		Name: "S",
		Entities: schema.EntityList{
			{Name: "A", Count: 5, Attributes: schema.AttributeList{
				{Name: "flag", Generator: "choice", Unique: true, Required: true,
					Constraints: map[string]any{"values": []any{"yes", "no"}}},
			}},
		},
	}

	_, err := newTestGenerator().GenerateSystem(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unseen value")
}

func TestUniqueValuesPairwiseDistinct(t *testing.T) {
	s := &schema.SystemSchema{
		Name: "S",
		Entities: schema.EntityList{
			{Name: "A", Count: 50, Attributes: schema.AttributeList{
				{Name: "n", Generator: "int", Unique: true, Required: true,
					Constraints: map[string]any{"min": 1, "max": 200}},
			}},
		},
	}

	result, err := newTestGenerator().GenerateSystem(s)
	require.NoError(t, err)

	seen := make(map[any]bool)
	for _, record := range result.Entities["A"] {
		require.False(t, seen[record["n"]], "duplicate unique value %v", record["n"])
		seen[record["n"]] = true
	}
}

func TestDeterminismAcrossInvocations(t *testing.T) {
	first, err := newTestGenerator().GenerateSystem(chainSchema())
	require.NoError(t, err)
	second, err := newTestGenerator().GenerateSystem(chainSchema())
	require.NoError(t, err)

	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, first.Metadata.SchemaHash, second.Metadata.SchemaHash)
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := chainSchema()
	b := chainSchema()
	b.Seed = seedPtr(12)

	ra, err := newTestGenerator().GenerateSystem(a)
	require.NoError(t, err)
	rb, err := newTestGenerator().GenerateSystem(b)
	require.NoError(t, err)

	assert.NotEqual(t, ra.Entities["A"], rb.Entities["A"])
}

func TestRequiredLinkFailureAbortsEntity(t *testing.T) {
	// B links to A, but A produces zero records, so every required
	// resolution fails.
	s := &schema.SystemSchema{
		Name: "S",
		Entities: schema.EntityList{
			{Name: "A", Count: 0, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
			}},
			{Name: "B", Count: 3, Attributes: schema.AttributeList{
				{Name: "a_ref", Link: "S.A.id", Required: true},
			}},
		},
	}

	_, err := newTestGenerator().GenerateSystem(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S.B")
}

func TestOptionalLinkFailureLeavesFieldEmpty(t *testing.T) {
	s := &schema.SystemSchema{
		Name: "S",
		Entities: schema.EntityList{
			{Name: "A", Count: 0, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
			}},
			{Name: "B", Count: 3, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid", Required: true},
				{Name: "a_ref", Link: "S.A.id"},
			}},
		},
	}

	result, err := newTestGenerator().GenerateSystem(s)
	require.NoError(t, err)
	for _, record := range result.Entities["B"] {
		assert.Nil(t, record["a_ref"])
	}
}

func TestEmptySchemaStillReturnsMetadata(t *testing.T) {
	empty := &schema.SystemSchema{Name: "E"}
	results, err := newTestGenerator().GenerateMultipleSystems([]*schema.SystemSchema{empty})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metadata)
	assert.Equal(t, 0, results[0].Metadata.TotalRecords)
	assert.Equal(t, int64(7), results[0].Metadata.SeedUsed)
	assert.Nil(t, results[0].Metadata.SchemaSeed)
}

func TestMetadataRecordsEffectiveDefaultSeed(t *testing.T) {
	// A seedless schema generated under two different generator defaults
	// yields different records; the manifests must record the effective
	// seed so the runs never compare identical.
	seedless := func() *schema.SystemSchema {
		return &schema.SystemSchema{
			Name: "S",
			Entities: schema.EntityList{
				{Name: "A", Count: 5, Attributes: schema.AttributeList{
					{Name: "id", Generator: "uuid", Unique: true, Required: true},
				}},
			},
		}
	}
	newProvider := func(seed int64) ValueProvider { return NewFaker(seed) }

	first, err := New(1, newProvider).GenerateSystem(seedless())
	require.NoError(t, err)
	second, err := New(2, newProvider).GenerateSystem(seedless())
	require.NoError(t, err)

	require.NotEqual(t, first.Entities["A"], second.Entities["A"])

	assert.Equal(t, int64(1), first.Metadata.SeedUsed)
	assert.Equal(t, int64(2), second.Metadata.SeedUsed)
	assert.Nil(t, first.Metadata.SchemaSeed)
	assert.False(t, manifest.IsIdenticalGeneration(first.Metadata, second.Metadata))
}

func TestDottedNamesRejectedBeforeGeneration(t *testing.T) {
	dottedSchema := &schema.SystemSchema{
		Name: "a.b",
		Entities: schema.EntityList{
			{Name: "c", Count: 1, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
			}},
		},
	}
	_, err := newTestGenerator().GenerateSystem(dottedSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not contain '.'")

	dottedEntity := &schema.SystemSchema{
		Name: "a",
		Entities: schema.EntityList{
			{Name: "b.c", Count: 1, Attributes: schema.AttributeList{
				{Name: "id", Generator: "uuid"},
			}},
		},
	}
	_, err = newTestGenerator().GenerateSystem(dottedEntity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not contain '.'")
}

func TestDuplicateSchemaNamesRejected(t *testing.T) {
	a := &schema.SystemSchema{Name: "same"}
	b := &schema.SystemSchema{Name: "same"}
	_, err := newTestGenerator().GenerateMultipleSystems([]*schema.SystemSchema{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate schema name")
}

func TestCrossSchemaLinkRequiresBothSchemas(t *testing.T) {
	orders := &schema.SystemSchema{
		Name: "O",
		Entities: schema.EntityList{
			{Name: "orders", Count: 1, Attributes: schema.AttributeList{
				{Name: "user_id", Link: "U.users.id", Required: true},
			}},
		},
	}
	// Generating O alone must fail: the link target is not part of this
	// invocation.
	_, err := newTestGenerator().GenerateSystem(orders)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown schema "U"`)
}
