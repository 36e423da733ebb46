package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const FileName = "jafgen.yaml"

type Config struct {
	Version    string   `json:"version" mapstructure:"version"`
	SchemaDir  string   `json:"schema_dir" mapstructure:"schema_dir"`   // folder containing .yaml schema files
	OutputPath string   `json:"output_path" mapstructure:"output_path"` // default output directory
	Formats    []string `json:"formats" mapstructure:"formats"`         // default output formats
	Seed       *int64   `json:"seed" mapstructure:"seed"`               // default seed for schemas without one
	Multiplier int      `json:"multiplier" mapstructure:"multiplier"`   // record count multiplier
	Database   Database `json:"database" mapstructure:"database"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

func DefaultConfig() *Config {
	return &Config{
		Version:    "1",
		SchemaDir:  "schemas",
		OutputPath: "output",
		Formats:    []string{"csv"},
		Multiplier: 1,
		Database: Database{
			Provider: "postgresql",
			URLEnv:   "DATABASE_URL",
		},
	}
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.SchemaDir == "" {
		cfg.SchemaDir = "schemas"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "output"
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"csv"}
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 1
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

const exampleSchema = `name: shop
version: "1"
seed: 42
output:
  path: output
  formats: [csv, json]
entities:
  customers:
    count: 25
    attributes:
      id: {generator: uuid, unique: true, required: true}
      name: {generator: person_name, required: true}
      email: {generator: email, unique: true}
  orders:
    count: 100
    attributes:
      id: {generator: uuid, unique: true, required: true}
      customer_id: {link: shop.customers.id, required: true}
      total: {generator: price, constraints: {max: 500}}
      placed_at: {generator: timestamp}
`

const exampleConfig = `version: "1"
schema_dir: schemas
output_path: output
formats: [csv, json]
`

// IsInitialized reports whether a project config exists in the working
// directory.
func IsInitialized() bool {
	_, err := os.Stat(FileName)
	return err == nil
}

// InitializeProject scaffolds a config file, a schema directory with an
// example schema, and the output directory.
func InitializeProject() error {
	if IsInitialized() {
		return fmt.Errorf("project already initialized: %s exists", FileName)
	}

	if err := os.WriteFile(FileName, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	for _, dir := range []string{"schemas", "output"} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	schemaPath := filepath.Join("schemas", "shop.yaml")
	if err := os.WriteFile(schemaPath, []byte(exampleSchema), 0644); err != nil {
		return fmt.Errorf("failed to write example schema: %w", err)
	}
	return nil
}
