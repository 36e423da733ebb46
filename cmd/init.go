package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new jafgen project",
	Long:  `Create a jafgen.yaml config file, a schemas/ directory with an example schema, and the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeProject(); err != nil {
			return err
		}
		color.Green("✅ Project initialized")
		color.Cyan("   Edit schemas/shop.yaml, then run: jafgen generate")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
