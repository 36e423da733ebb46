package writer

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// DatabaseWriter loads generated records into a live PostgreSQL, MySQL, or
// SQLite database. It creates missing tables and clears each table before
// inserting, so repeated runs replace rather than append.
type DatabaseWriter struct {
	provider string
	url      string
}

func NewDatabase(provider, url string) *DatabaseWriter {
	return &DatabaseWriter{provider: provider, url: url}
}

func (w *DatabaseWriter) Format() string { return "database" }

// Files returns nothing: a database target has no local artifacts, so the
// idempotency skip check never applies to it.
func (w *DatabaseWriter) Files(system *generator.GeneratedSystem, outputDir string) []string {
	return nil
}

func (w *DatabaseWriter) Write(system *generator.GeneratedSystem, outputDir string) error {
	db, err := w.open()
	if err != nil {
		return err
	}
	defer db.Close()

	placeholder := sq.PlaceholderFormat(sq.Question)
	if w.provider == "postgresql" || w.provider == "postgres" {
		placeholder = sq.Dollar
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, entity := range system.Schema.Entities {
		if err := w.prepareTable(tx, &entity); err != nil {
			tx.Rollback()
			return err
		}
		if err := insertRecords(tx, &entity, system.Entities[entity.Name], placeholder); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (w *DatabaseWriter) open() (*sql.DB, error) {
	var driverName string
	switch w.provider {
	case "postgresql", "postgres":
		driverName = "pgx"
	case "mysql":
		driverName = "mysql"
	case "sqlite", "sqlite3":
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database provider %q", w.provider)
	}

	db, err := sql.Open(driverName, strings.TrimPrefix(w.url, "sqlite://"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (w *DatabaseWriter) prepareTable(tx *sql.Tx, entity *schema.EntityDefinition) error {
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

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", entity.Name, strings.Join(columns, ", "))
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", entity.Name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", entity.Name)); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", entity.Name, err)
	}
	return nil
}
