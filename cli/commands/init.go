package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/config"
	"github.com/satishbabariya/prisma-query-engine/cli/internal/ui"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file and a starter catalog",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var (
	initYes    bool
	initGlobal bool
)

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept the defaults without prompting")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "Write the config to $HOME/.config/prisma-query")

	rootCmd.AddCommand(initCmd)
}

const starterCatalog = `# Models the query compiler reads from.
enums:
  - name: Role
    values: [USER, ADMIN]
models:
  - name: User
    primary_key: [id]
    fields:
      - { name: id, type: Int }
      - { name: email, type: String }
      - { name: name, type: String, optional: true }
      - { name: role, type: Role }
    relations:
      - { name: posts, model: Post, list: true, relation_name: UserPosts }
  - name: Post
    primary_key: [id]
    fields:
      - { name: id, type: Int }
      - { name: title, type: String }
      - { name: published, type: Boolean }
      - { name: authorId, type: Int, optional: true }
    relations:
      - { name: author, model: User, optional: true, relation_name: UserPosts, fields: [authorId], references: [id] }
`

type initAnswers struct {
	Provider        string `survey:"provider"`
	ProviderVersion string `survey:"provider_version"`
	CatalogPath     string `survey:"catalog_path"`
	SchemaName      string `survey:"schema_name"`
	LogFormat       string `survey:"log_format"`
}

func defaultAnswers(c *config.Config) initAnswers {
	return initAnswers{
		Provider:        c.Provider,
		ProviderVersion: c.ProviderVersion,
		CatalogPath:     c.CatalogPath,
		SchemaName:      c.SchemaName,
		LogFormat:       c.LogFormat,
	}
}

func initQuestions(def initAnswers) []*survey.Question {
	return []*survey.Question{
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Database provider:",
				Options: []string{"postgresql", "cockroachdb", "mysql", "sqlite", "sqlserver"},
				Default: def.Provider,
			},
		},
		{
			Name: "provider_version",
			Prompt: &survey.Input{
				Message: "Server version (blank for latest):",
				Default: def.ProviderVersion,
			},
		},
		{
			Name:     "catalog_path",
			Prompt:   &survey.Input{Message: "Catalog file:", Default: def.CatalogPath},
			Validate: survey.Required,
		},
		{
			Name:   "schema_name",
			Prompt: &survey.Input{Message: "Default schema (blank for none):", Default: def.SchemaName},
		},
		{
			Name: "log_format",
			Prompt: &survey.Select{
				Message: "Debug log format:",
				Options: []string{"text", "json"},
				Default: def.LogFormat,
			},
		},
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	answers := defaultAnswers(cfg)
	if !initYes {
		if err := survey.Ask(initQuestions(answers), &answers); err != nil {
			return err
		}
	}

	out, err := applyAnswers(cfg, answers)
	if err != nil {
		return err
	}

	var path string
	if initGlobal {
		path, err = config.SaveConfig(out)
	} else {
		path, err = config.SaveConfigTo(".", out)
	}
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ui.PrintSuccess("Wrote %s", path)

	created, err := writeStarterCatalog(out.CatalogPath)
	if err != nil {
		return err
	}
	if created {
		ui.PrintSuccess("Wrote starter catalog %s", out.CatalogPath)
	} else {
		ui.PrintInfo("Catalog %s already exists", out.CatalogPath)
	}
	return nil
}

// applyAnswers validates the answers and returns the resulting config.
func applyAnswers(c *config.Config, a initAnswers) (*config.Config, error) {
	if _, err := connector.ForProvider(a.Provider, a.ProviderVersion); err != nil {
		return nil, err
	}
	out := *c
	out.Provider = a.Provider
	out.ProviderVersion = a.ProviderVersion
	out.CatalogPath = a.CatalogPath
	out.SchemaName = a.SchemaName
	out.LogFormat = a.LogFormat
	return &out, nil
}

// writeStarterCatalog writes the example catalog unless path exists.
func writeStarterCatalog(path string) (bool, error) {
	exists, err := afero.Exists(config.AppFs, path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := afero.WriteFile(config.AppFs, path, []byte(starterCatalog), 0644); err != nil {
		return false, fmt.Errorf("failed to write catalog: %w", err)
	}
	return true, nil
}
