package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
)

// jsonWriter emits one document per schema: <outputDir>/<schema>.json with
// every entity's records keyed by entity name.
type jsonWriter struct{}

type jsonDocument struct {
	Schema   string                        `json:"schema"`
	Version  string                        `json:"version"`
	Entities map[string][]generator.Record `json:"entities"`
}

func (w *jsonWriter) Format() string { return "json" }

func (w *jsonWriter) Files(system *generator.GeneratedSystem, outputDir string) []string {
	return []string{filepath.Join(outputDir, system.Schema.Name+".json")}
}

func (w *jsonWriter) Write(system *generator.GeneratedSystem, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := jsonDocument{
		Schema:   system.Schema.Name,
		Version:  system.Schema.Version,
		Entities: system.Entities,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	path := filepath.Join(outputDir, system.Schema.Name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
