// Package writer holds the per-format output writers. Every writer is
// file-level idempotent: writing the same system twice replaces the
// previous artifacts, never appends to them.
package writer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
)

type Writer interface {
	Format() string
	// Write emits every entity of the system under outputDir.
	Write(system *generator.GeneratedSystem, outputDir string) error
	// Files lists the artifacts Write would produce, for skip checks.
	Files(system *generator.GeneratedSystem, outputDir string) []string
}

// New returns the file writer for a format. The database writer is not
// constructed here because it needs connection details; see NewDatabase.
func New(format string) (Writer, error) {
	switch format {
	case "csv":
		return &csvWriter{}, nil
	case "json":
		return &jsonWriter{}, nil
	case "sqlite":
		return &sqliteWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ExpectedFiles lists every artifact the given formats would produce for a
// system, used by the idempotency skip check.
func ExpectedFiles(formats []string, system *generator.GeneratedSystem, outputDir string) ([]string, error) {
	var files []string
	for _, format := range formats {
		w, err := New(format)
		if err != nil {
			return nil, err
		}
		files = append(files, w.Files(system, outputDir)...)
	}
	return files, nil
}

// validIdentifier guards table and column names handed to SQL writers.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", t)
	}
}
