package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/ui"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show what the compiler can render for a provider",
	Args:  cobra.NoArgs,
	RunE:  runCapabilities,
}

var capabilitiesTarget targetFlags

func init() {
	capabilitiesCmd.Flags().StringVarP(&capabilitiesTarget.provider, "provider", "p", "", "Target provider")
	capabilitiesCmd.Flags().StringVar(&capabilitiesTarget.providerVersion, "provider-version", "", "Server version of the provider")

	rootCmd.AddCommand(capabilitiesCmd)
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	c := capabilitiesTarget.apply(cfg)
	conn, err := connector.ForProvider(c.Provider, c.ProviderVersion)
	if err != nil {
		return err
	}

	ui.PrintSection(conn.String())
	return ui.PrintTable([]string{"Capability", "Supported"}, capabilityRows(conn.Capabilities))
}

func capabilityRows(caps connector.Capabilities) [][]string {
	yes := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	return [][]string{
		{"case-insensitive filters", yes(caps.InsensitiveFilters)},
		{"raw geometry reads", yes(caps.RawGeometryRead)},
		{"NULLS FIRST/LAST", yes(caps.NullsOrdering)},
		{"NULL sorts high", yes(caps.NullsSortHigh)},
		{"DISTINCT ON", yes(caps.DistinctOn)},
		{"native enums", yes(caps.NativeEnums)},
		{"scalar lists", yes(caps.ScalarLists)},
	}
}
