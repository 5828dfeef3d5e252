// Package commands implements the prisma-query CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/config"
	"github.com/satishbabariya/prisma-query-engine/cli/internal/ui"
	"github.com/satishbabariya/prisma-query-engine/internal/debug"
)

var (
	cfgFile   string
	debugFlag bool

	// cfg is loaded before any command runs
	cfg = &config.Config{}
)

var rootCmd = &cobra.Command{
	Use:   "prisma-query",
	Short: "Compile and run Prisma query documents as SQL",
	Long: `prisma-query compiles Prisma-style query documents (findMany, findFirst,
aggregate, groupBy) against a model catalog into SQL for PostgreSQL,
CockroachDB, MySQL, SQLite or SQL Server, and can run them against a database.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default .prisma-query.yaml in ., $HOME or $HOME/.config/prisma-query)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log compilation and execution details to stderr")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debugFlag {
		c.Debug = true
	}
	debug.InitWithOptions(c.Debug, debug.ParseFormat(c.LogFormat), os.Stderr)
	cfg = c
	return nil
}

// Execute is the main entry point for the CLI
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}
