package cmd

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/config"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/generator"
	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate schemas, link references, and dependency ordering",
	Long: `Check every schema in the schema directory without generating any
data: structural shape, link targets, and acyclicity of the dependency
graph. All problems are reported, not just the first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		schemas, err := schema.LoadDir(cfg.SchemaDir)
		if err != nil {
			return err
		}

		resolver := generator.NewLinkResolver(rand.New(rand.NewSource(0)))
		if errs := resolver.ValidateAllLinks(schemas); len(errs) > 0 {
			for _, e := range errs {
				color.Red("  ✗ %v", e)
			}
			return fmt.Errorf("%d link validation error(s)", len(errs))
		}

		_, order, err := resolver.BuildDependencyGraph(schemas)
		if err != nil {
			return err
		}

		color.Green("✅ %d schema(s) valid", len(schemas))
		color.Cyan("📋 Generation order: %s", strings.Join(order, " → "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
