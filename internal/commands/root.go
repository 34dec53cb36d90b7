package commands

import (
	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Import transaction CSVs into a categorized ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newCategoriesCommand(),
		newTransactionsCommand(),
		newBalanceCommand(),
		newServeCommand(),
	)

	return rootCmd
}
