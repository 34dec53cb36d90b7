package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/model"
)

func newCategoriesCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openLedger(cmd, repoDir)
			if err != nil {
				return err
			}
			defer b.close()

			cats, err := b.ledger.ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing categories: %w", err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Title, c.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger directory")
	return cmd
}

func newTransactionsCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions with their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openLedger(cmd, repoDir)
			if err != nil {
				return err
			}
			defer b.close()

			txns, err := b.ledger.ListTransactions(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transactions: %w", err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tTYPE\tVALUE\tCATEGORY")
			for _, t := range txns {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Title, t.Type, t.Value, categoryTitle(t))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger directory")
	return cmd
}

func newBalanceCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print income, outcome and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openLedger(cmd, repoDir)
			if err != nil {
				return err
			}
			defer b.close()

			txns, err := b.ledger.ListTransactions(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transactions: %w", err)
			}

			bal := model.ComputeBalance(txns)
			fmt.Printf("Income:  %s\n", bal.Income.StringFixed(2))
			fmt.Printf("Outcome: %s\n", bal.Outcome.StringFixed(2))
			fmt.Printf("Total:   %s\n", bal.Total.StringFixed(2))
			if bal.Skipped > 0 {
				fmt.Printf("(%d transactions with an unreadable value or type were not counted)\n", bal.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger directory")
	return cmd
}

func openLedger(cmd *cobra.Command, repoDir string) (*backend, error) {
	p, err := loadProject(repoDir)
	if err != nil {
		return nil, err
	}
	return p.openBackend(cmd.Context())
}

func categoryTitle(t model.Transaction) string {
	if t.Category == nil {
		return "-"
	}
	return t.Category.Title
}
