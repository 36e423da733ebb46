package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/config"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/manifest"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/writer"
)

var (
	genMultiplier int
	genForce      bool
	genFormats    []string
	genOut        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic data from the configured schemas",
	Long: `Load every schema in the schema directory, validate link references,
generate all systems in one combined dependency order, and write the
requested output formats. Runs whose schema, seed, counts, and formats
match the previous run are skipped when the output files still exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		schemas, err := schema.LoadDir(cfg.SchemaDir)
		if err != nil {
			return err
		}

		multiplier := cfg.Multiplier
		if genMultiplier > 0 {
			multiplier = genMultiplier
		}
		if multiplier > 1 {
			for _, s := range schemas {
				s.Rescale(multiplier)
			}
		}

		defaultSeed := int64(generator.DefaultSeed)
		if cfg.Seed != nil {
			defaultSeed = *cfg.Seed
		}

		color.Cyan("🌱 Generating %d system(s)...", len(schemas))

		gen := generator.New(defaultSeed, func(seed int64) generator.ValueProvider {
			return generator.NewFaker(seed)
		})
		results, err := gen.GenerateMultipleSystems(schemas)
		if err != nil {
			return err
		}

		for _, result := range results {
			if err := writeSystem(cfg, result); err != nil {
				return err
			}
		}

		color.Green("\n✅ Generation completed successfully")
		return nil
	},
}

func writeSystem(cfg *config.Config, result *generator.GeneratedSystem) error {
	name := result.Schema.Name

	outputDir := result.Schema.Output.Path
	if genOut != "" {
		outputDir = genOut
	}
	if outputDir == "" {
		outputDir = cfg.OutputPath
	}

	formats := result.Schema.Output.Formats
	if len(genFormats) > 0 {
		formats = genFormats
	}
	if len(formats) == 0 {
		formats = cfg.Formats
	}

	// The sidecar must describe the run as it actually happened, so flag
	// and config overrides replace the schema's declared values before the
	// skip check and before the manifest is saved.
	result.Metadata.OutputFormats = append([]string(nil), formats...)
	result.Metadata.OutputPath = outputDir

	sidecar := manifest.SidecarPath(outputDir, name)
	if !genForce {
		prior, err := manifest.Load(sidecar)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			color.Yellow("  ⚠️  Ignoring unreadable manifest for %s: %v", name, err)
		}
		expected, err := expectedLocalFiles(formats, result, outputDir)
		if err != nil {
			return err
		}
		if manifest.CanSkip(prior, result.Metadata, expected) {
			color.Yellow("  ⏭  %s unchanged since last run, skipping (use --force to rewrite)", name)
			return nil
		}
	}

	color.Cyan("  📝 Writing %s (%d records, formats: %s)...", name, result.Metadata.TotalRecords, strings.Join(formats, ", "))

	for _, format := range formats {
		w, err := newWriter(cfg, format)
		if err != nil {
			return err
		}
		if err := w.Write(result, outputDir); err != nil {
			return fmt.Errorf("failed to write %s output for %s: %w", format, name, err)
		}
	}

	if err := manifest.Save(result.Metadata, sidecar); err != nil {
		return err
	}

	color.Green("  ✅ %s written to %s", name, outputDir)
	return nil
}

func newWriter(cfg *config.Config, format string) (writer.Writer, error) {
	if format == "database" {
		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return nil, err
		}
		return writer.NewDatabase(cfg.Database.Provider, dbURL), nil
	}
	return writer.New(format)
}

// expectedLocalFiles lists the on-disk artifacts for the skip check. The
// database format has none and is handled by its writer.
func expectedLocalFiles(formats []string, result *generator.GeneratedSystem, outputDir string) ([]string, error) {
	var local []string
	for _, f := range formats {
		if f != "database" {
			local = append(local, f)
		}
	}
	return writer.ExpectedFiles(local, result, outputDir)
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&genMultiplier, "multiplier", 0, "Multiply every entity's record count")
	generateCmd.Flags().BoolVar(&genForce, "force", false, "Rewrite output even if the previous run is identical")
	generateCmd.Flags().StringSliceVar(&genFormats, "format", nil, "Override output formats (csv, json, sqlite, database)")
	generateCmd.Flags().StringVar(&genOut, "out", "", "Override the output directory")
}
