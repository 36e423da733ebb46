package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// sqliteWriter emits one embedded database per schema:
// <outputDir>/<schema>.db with one table per entity. The previous file is
// removed first so a rewrite replaces, never appends.
type sqliteWriter struct{}

func (w *sqliteWriter) Format() string { return "sqlite" }

func (w *sqliteWriter) Files(system *generator.GeneratedSystem, outputDir string) []string {
	return []string{filepath.Join(outputDir, system.Schema.Name+".db")}
}

func (w *sqliteWriter) Write(system *generator.GeneratedSystem, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, system.Schema.Name+".db")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, entity := range system.Schema.Entities {
		if err := createTable(tx, &entity); err != nil {
			tx.Rollback()
			return err
		}
		if err := insertRecords(tx, &entity, system.Entities[entity.Name], sq.Question); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func createTable(tx *sql.Tx, entity *schema.EntityDefinition) error {
	if !isValidIdentifier(entity.Name) {
		return fmt.Errorf("invalid table name: %s", entity.Name)
	}

	columns := make([]string, 0, len(entity.Attributes))
	for _, a := range entity.Attributes {
		if !isValidIdentifier(a.Name) {
			return fmt.Errorf("invalid column name in table %s: %s", entity.Name, a.Name)
		}
		columns = append(columns, fmt.Sprintf("%s %s", a.Name, columnType(&a)))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", entity.Name, strings.Join(columns, ", "))
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", entity.Name, err)
	}
	return nil
}

func insertRecords(runner sq.BaseRunner, entity *schema.EntityDefinition, records []generator.Record, placeholder sq.PlaceholderFormat) error {
	if len(records) == 0 {
		return nil
	}

	columns := make([]string, 0, len(entity.Attributes))
	for _, a := range entity.Attributes {
		columns = append(columns, a.Name)
	}

	for _, record := range records {
		values := make([]any, 0, len(columns))
		for _, col := range columns {
			values = append(values, record[col])
		}
		_, err := sq.Insert(entity.Name).
			Columns(columns...).
			Values(values...).
			PlaceholderFormat(placeholder).
			RunWith(runner).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", entity.Name, err)
		}
	}
	return nil
}

func columnType(attr *schema.AttributeDefinition) string {
	switch attr.Generator {
	case "int", "integer":
		return "INTEGER"
	case "float", "decimal", "price":
		return "REAL"
	case "bool", "boolean":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
