package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// csvWriter emits one CSV file per entity under <outputDir>/<schema>/,
// with columns in attribute declaration order.
type csvWriter struct{}

func (w *csvWriter) Format() string { return "csv" }

func (w *csvWriter) Files(system *generator.GeneratedSystem, outputDir string) []string {
	files := make([]string, 0, len(system.Schema.Entities))
	for _, e := range system.Schema.Entities {
		files = append(files, filepath.Join(outputDir, system.Schema.Name, e.Name+".csv"))
	}
	return files
}

func (w *csvWriter) Write(system *generator.GeneratedSystem, outputDir string) error {
	dir := filepath.Join(outputDir, system.Schema.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, entity := range system.Schema.Entities {
		if err := w.writeEntity(&entity, system.Entities[entity.Name], dir); err != nil {
			return fmt.Errorf("failed to write %s.csv: %w", entity.Name, err)
		}
	}
	return nil
}

func (w *csvWriter) writeEntity(entity *schema.EntityDefinition, records []generator.Record, dir string) error {
	file, err := os.Create(filepath.Join(dir, entity.Name+".csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)

	header := make([]string, 0, len(entity.Attributes))
	for _, a := range entity.Attributes {
		header = append(header, a.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, record := range records {
		for i, name := range header {
			row[i] = formatValue(record[name])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
