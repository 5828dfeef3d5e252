package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/config"
	"github.com/satishbabariya/prisma-query-engine/cli/internal/ui"
	"github.com/satishbabariya/prisma-query-engine/cli/internal/watch"
	"github.com/satishbabariya/prisma-query-engine/query/document"
	"github.com/satishbabariya/prisma-query-engine/query/sqlgen"
)

var compileCmd = &cobra.Command{
	Use:   "compile [query.json]",
	Short: "Compile a query document to SQL",
	Long: `Compile a query document against the catalog and print the SQL
statement with its bind arguments.

With --watch the document and the catalog are watched and the statement
is recompiled on every change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

var (
	compileTarget targetFlags
	compilePretty bool
	compileWatch  bool
)

func init() {
	compileTarget.bind(compileCmd)
	compileCmd.Flags().BoolVar(&compilePretty, "pretty", false, "Render the statement as highlighted markdown")
	compileCmd.Flags().BoolVarP(&compileWatch, "watch", "w", false, "Recompile when the document or catalog changes")

	rootCmd.AddCommand(compileCmd)
}

// compileDocument parses the document at path and compiles it for the
// configured target.
func compileDocument(c *config.Config, path string) (*sqlgen.Query, error) {
	engine, err := newEngine(c, nil)
	if err != nil {
		return nil, err
	}
	op, err := document.ParseFile(config.AppFs, engine.Catalog(), path)
	if err != nil {
		return nil, err
	}
	return engine.Compile(op)
}

func runCompile(cmd *cobra.Command, args []string) error {
	c := compileTarget.apply(cfg)
	path := queryPath(compileTarget.query, args)

	compileOnce := func() error {
		q, err := compileDocument(c, path)
		if err != nil {
			return err
		}
		return ui.PrintStatement(q.SQL, q.Args, compilePretty)
	}

	if !compileWatch {
		return compileOnce()
	}

	watcher, err := watch.NewWatcher([]string{path, c.CatalogPath}, func() error {
		if err := compileOnce(); err != nil {
			ui.PrintError("%v", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	ui.PrintSuccess("Watching %s and %s for changes... (Press Ctrl+C to stop)", path, c.CatalogPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ui.PrintInfo("Stopping watch mode...")
	return nil
}
