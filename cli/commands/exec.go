package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/config"
	"github.com/satishbabariya/prisma-query-engine/cli/internal/ui"
	"github.com/satishbabariya/prisma-query-engine/query/document"
	"github.com/satishbabariya/prisma-query-engine/query/executor"
)

var execCmd = &cobra.Command{
	Use:   "exec [query.json]",
	Short: "Run a query document against the database",
	Long: `Compile a query document and run it against database_url (or
DATABASE_URL), printing the rows as a table or as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

var (
	execTarget      targetFlags
	execDatabaseURL string
	execJSON        bool
	execTimeout     time.Duration
)

func init() {
	execTarget.bind(execCmd)
	execCmd.Flags().StringVar(&execDatabaseURL, "database-url", "", "Connection URL (overrides config and DATABASE_URL)")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "Print rows as JSON")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 30*time.Second, "Query timeout")

	rootCmd.AddCommand(execCmd)
}

// executeDocument opens the database, runs the document at path and
// returns its records.
func executeDocument(ctx context.Context, c *config.Config, path string) ([]executor.Record, error) {
	db, err := openDatabase(c)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	engine, err := newEngine(c, db)
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	op, err := document.ParseFile(config.AppFs, engine.Catalog(), path)
	if err != nil {
		return nil, err
	}
	return engine.Execute(ctx, op)
}

func runExec(cmd *cobra.Command, args []string) error {
	c := execTarget.apply(cfg)
	if execDatabaseURL != "" {
		c.DatabaseURL = execDatabaseURL
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), execTimeout)
	defer cancel()

	records, err := executeDocument(ctx, c, queryPath(execTarget.query, args))
	if err != nil {
		return err
	}

	if execJSON {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode rows: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}

	if len(records) == 0 {
		ui.PrintInfo("No rows")
		return nil
	}
	headers, rows := recordTable(records)
	if err := ui.PrintTable(headers, rows); err != nil {
		return err
	}
	ui.PrintSuccess("%d row(s)", len(records))
	return nil
}

// recordTable lays records out as table rows under the first record's
// columns.
func recordTable(records []executor.Record) ([]string, [][]string) {
	headers := records[0].Columns
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(r.Values))
		for j, v := range r.Values {
			row[j] = ui.FormatValue(v)
		}
		rows[i] = row
	}
	return headers, rows
}
