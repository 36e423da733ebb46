package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.1"
)

var rootCmd = &cobra.Command{
	Use:   "jafgen",
	Short: "Configuration-driven synthetic data generator",
	Long: `
jafgen generates internally consistent synthetic record sets from
declarative YAML schemas. Entities may link to attributes of other
entities, across schemas, and are generated in dependency order so every
link resolves against real generated values.

Output formats:
- csv (one file per entity)
- json (one document per schema)
- sqlite (one embedded database per schema)
- database (insert into PostgreSQL, MySQL, or SQLite)`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("jafgen version %s\n", Version)
			os.Exit(0)
		}
		cmd.Help()
	},
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default jafgen.yaml)")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

func initConfig() {
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("jafgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// A missing config file is fine; defaults cover everything.
	viper.ReadInConfig()
}
