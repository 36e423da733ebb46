// Package manifest records enough metadata about a generation run to make
// re-runs reproducible or safely skippable. It never inspects record
// content; the signal is purely structural.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// Metadata is the one artifact meant to persist across invocations,
// written as a sidecar beside the generated output.
type Metadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	// SeedUsed is the seed generation actually ran with: the schema's own
	// seed when present, else the generator default.
	SeedUsed int64 `json:"seed_used"`
	// SchemaSeed is the schema's explicit seed; nil means the schema
	// carried none and SeedUsed came from the generator default. The
	// distinction between "explicitly zero" and "absent" survives the
	// round trip as JSON null.
	SchemaSeed    *int64         `json:"schema_seed"`
	TotalRecords  int            `json:"total_records"`
	EntityCounts  map[string]int `json:"entity_counts"`
	SchemaHash    string         `json:"schema_hash"`
	OutputFormats []string       `json:"output_formats"`
	OutputPath    string         `json:"output_path"`
}

// canonical mirrors of the schema model with every collection sorted by
// name, so the hash does not depend on declaration order in the source
// config.
type canonicalSchema struct {
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Entities []canonicalEntity `json:"entities"`
}

type canonicalEntity struct {
	Name       string               `json:"name"`
	Count      int                  `json:"count"`
	Attributes []canonicalAttribute `json:"attributes"`
}

type canonicalAttribute struct {
	Name        string         `json:"name"`
	Generator   string         `json:"generator"`
	Unique      bool           `json:"unique"`
	Required    bool           `json:"required"`
	Link        string         `json:"link"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// SchemaHash computes a content hash over a canonicalized, key-sorted
// serialization of the schema. Reordering entities or attributes in the
// input leaves the hash unchanged; any change to a count, generator,
// uniqueness, required flag, link, or constraint changes it.
func SchemaHash(s *schema.SystemSchema) string {
	c := canonicalSchema{Name: s.Name, Version: s.Version}
	for _, e := range s.Entities {
		ce := canonicalEntity{Name: e.Name, Count: e.Count}
		for _, a := range e.Attributes {
			ce.Attributes = append(ce.Attributes, canonicalAttribute{
				Name:        a.Name,
				Generator:   a.Generator,
				Unique:      a.Unique,
				Required:    a.Required,
				Link:        a.Link,
				Constraints: a.Constraints,
			})
		}
		sort.Slice(ce.Attributes, func(i, j int) bool { return ce.Attributes[i].Name < ce.Attributes[j].Name })
		c.Entities = append(c.Entities, ce)
	}
	sort.Slice(c.Entities, func(i, j int) bool { return c.Entities[i].Name < c.Entities[j].Name })

	// json.Marshal sorts map keys, which canonicalizes constraints.
	data, err := json.Marshal(c)
	if err != nil {
		// canonical form holds only plain values
		panic(fmt.Sprintf("manifest: canonical schema marshal: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SidecarPath is where a schema's metadata sidecar lives inside an output
// directory.
func SidecarPath(outputDir, schemaName string) string {
	return filepath.Join(outputDir, schemaName+".manifest.json")
}

// Save writes the metadata sidecar, replacing any previous one.
func Save(meta *Metadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a metadata sidecar. The caller distinguishes "no prior run"
// with errors.Is(err, fs.ErrNotExist).
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &meta, nil
}

// IsIdenticalGeneration reports whether two runs are structurally the same:
// seed, schema hash, total record count, per-entity counts, and requested
// output formats must all match.
func IsIdenticalGeneration(a, b *Metadata) bool {
	if a == nil || b == nil {
		return false
	}
	if a.SeedUsed != b.SeedUsed || !seedsEqual(a.SchemaSeed, b.SchemaSeed) {
		return false
	}
	if a.SchemaHash != b.SchemaHash || a.TotalRecords != b.TotalRecords {
		return false
	}
	if len(a.EntityCounts) != len(b.EntityCounts) {
		return false
	}
	for name, count := range a.EntityCounts {
		if b.EntityCounts[name] != count {
			return false
		}
	}
	return formatsEqual(a.OutputFormats, b.OutputFormats)
}

// CanSkip reports whether rewriting output may be skipped: the prior run
// must be identical to the fresh one and every expected output file must
// still exist on disk.
func CanSkip(prior, fresh *Metadata, expectedFiles []string) bool {
	if !IsIdenticalGeneration(prior, fresh) {
		return false
	}
	for _, file := range expectedFiles {
		if _, err := os.Stat(file); err != nil {
			return false
		}
	}
	return true
}

func seedsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
