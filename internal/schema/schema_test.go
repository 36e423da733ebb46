package schema

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const shopYAML = `name: shop
version: "1"
seed: 42
output:
  path: out
  formats: [csv, json]
entities:
  customers:
    count: 5
    attributes:
      id: {generator: uuid, unique: true, required: true}
      name: {generator: person_name}
  orders:
    count: 10
    attributes:
      id: {generator: uuid, unique: true, required: true}
      customer_id: {link: shop.customers.id, required: true}
`

func TestUnmarshalPreservesDeclarationOrder(t *testing.T) {
	var s SystemSchema
	if err := yaml.Unmarshal([]byte(shopYAML), &s); err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	if len(s.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(s.Entities))
	}
	if s.Entities[0].Name != "customers" || s.Entities[1].Name != "orders" {
		t.Errorf("entity order not preserved: %q, %q", s.Entities[0].Name, s.Entities[1].Name)
	}

	attrs := s.Entities[1].Attributes
	if attrs[0].Name != "id" || attrs[1].Name != "customer_id" {
		t.Errorf("attribute order not preserved: %q, %q", attrs[0].Name, attrs[1].Name)
	}
	if attrs[1].Link != "shop.customers.id" {
		t.Errorf("expected link to be parsed, got %q", attrs[1].Link)
	}

	if s.Seed == nil || *s.Seed != 42 {
		t.Errorf("expected seed 42, got %v", s.Seed)
	}
}

func TestSeedAbsentStaysNil(t *testing.T) {
	var s SystemSchema
	if err := yaml.Unmarshal([]byte("name: a\nentities: {}\n"), &s); err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	if s.Seed != nil {
		t.Errorf("expected nil seed when absent, got %d", *s.Seed)
	}
}

func TestParseLinkSpec(t *testing.T) {
	ref, err := ParseLinkSpec("shop.customers.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Schema != "shop" || ref.Entity != "customers" || ref.Attribute != "id" {
		t.Errorf("bad parse result: %+v", ref)
	}
	if ref.EntityKey() != "shop.customers" {
		t.Errorf("expected entity key shop.customers, got %s", ref.EntityKey())
	}

	for _, bad := range []string{"", "shop", "shop.customers", "shop..id", ".customers.id", "shop.customers.", "a.b.c.d"} {
		if _, err := ParseLinkSpec(bad); err == nil {
			t.Errorf("expected parse failure for %q", bad)
		}
	}
}

func TestValidateRejectsNegativeCount(t *testing.T) {
	s := &SystemSchema{
		Name: "bad",
		Entities: EntityList{
			{Name: "things", Count: -1, Attributes: AttributeList{{Name: "id", Generator: "uuid"}}},
		},
	}
	if err := s.Validate(); err == nil {
		t.Error("expected validation failure for negative count")
	}
}

func TestValidateRejectsDottedNames(t *testing.T) {
	dottedSchema := &SystemSchema{
		Name: "a.b",
		Entities: EntityList{
			{Name: "things", Count: 1, Attributes: AttributeList{{Name: "id", Generator: "uuid"}}},
		},
	}
	if err := dottedSchema.Validate(); err == nil {
		t.Error("expected validation failure for dotted schema name")
	}

	dottedEntity := &SystemSchema{
		Name: "a",
		Entities: EntityList{
			{Name: "b.c", Count: 1, Attributes: AttributeList{{Name: "id", Generator: "uuid"}}},
		},
	}
	if err := dottedEntity.Validate(); err == nil {
		t.Error("expected validation failure for dotted entity name")
	}
}

func TestValidateSetRejectsDuplicateNames(t *testing.T) {
	a := &SystemSchema{Name: "same"}
	b := &SystemSchema{Name: "same"}
	if err := ValidateSet([]*SystemSchema{a, b}); err == nil {
		t.Error("expected validation failure for duplicate schema names")
	}
}

func TestRescale(t *testing.T) {
	s := &SystemSchema{
		Name: "s",
		Entities: EntityList{
			{Name: "a", Count: 5, Attributes: AttributeList{{Name: "id", Generator: "uuid"}}},
			{Name: "b", Count: 10, Attributes: AttributeList{{Name: "id", Generator: "uuid"}}},
		},
	}
	s.Rescale(3)
	if s.Entities[0].Count != 15 || s.Entities[1].Count != 30 {
		t.Errorf("unexpected counts after rescale: %d, %d", s.Entities[0].Count, s.Entities[1].Count)
	}
	if s.TotalRecords() != 45 {
		t.Errorf("expected 45 total records, got %d", s.TotalRecords())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shop.yaml"), []byte(shopYAML), 0644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("failed to write extra file: %v", err)
	}

	schemas, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("failed to load directory: %v", err)
	}
	if len(schemas) != 1 || schemas[0].Name != "shop" {
		t.Fatalf("unexpected schemas: %+v", schemas)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("expected error for directory without schema files")
	}
}
