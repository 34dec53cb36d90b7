package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/gitops"
	"github.com/tally-ledger/tally/internal/pgstore"
)

type initOptions struct {
	backend     string
	databaseURL string
	git         bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", config.BackendCSV, "store backend: csv or postgres")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection string (postgres backend)")
	cmd.Flags().BoolVar(&opts.git, "git", true, "track a csv ledger in git")

	return cmd
}

func runInit(ctx context.Context, dir string, opts initOptions) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()
	cfg.Store.Backend = opts.backend
	cfg.Store.DatabaseURL = opts.databaseURL
	cfg.Git.AutoCommit = opts.git && opts.backend == config.BackendCSV
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{cfg.Import.InboxDir, "logs"}
	if cfg.Store.Backend == config.BackendCSV {
		dirs = append(dirs, cfg.Store.DataDir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cfg.Import.InboxDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if cfg.Store.Backend == config.BackendPostgres {
		pool, err := pgstore.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pgstore.Migrate(ctx, pool); err != nil {
			return err
		}
		fmt.Printf("Initialized tally ledger at %s (postgres)\n", dir)
		return nil
	}

	if !cfg.Git.AutoCommit {
		fmt.Printf("Initialized tally ledger at %s\n", dir)
		return nil
	}
	if !gitops.Available() {
		fmt.Fprintln(os.Stderr, "warning: git not found, ledger will not be versioned")
		fmt.Printf("Initialized tally ledger at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(dir, "init: Initialize tally ledger", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized tally ledger at %s (%s)\n", dir, hash)
	return nil
}
