package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/importer"
	"github.com/tally-ledger/tally/internal/importlog"
)

func newImportCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import transaction CSV files",
		Long: "Import transaction CSV files into the ledger. Each file is removed once\n" +
			"its transactions are saved. With no arguments, every .csv file in the\n" +
			"ledger's import directory is imported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, repoDir, args)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger directory")

	return cmd
}

func runImport(cmd *cobra.Command, repoDir string, args []string) error {
	p, err := loadProject(repoDir)
	if err != nil {
		return err
	}

	files, err := importFiles(p, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No files to import in %s\n", p.cfg.InboxDir(p.root))
		return nil
	}

	ctx := cmd.Context()
	b, err := p.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()
	imp := p.newImporter(b)

	var (
		entries []importlog.Entry
		errs    []error
	)
	for _, path := range files {
		res, err := imp.Import(ctx, path)
		if res == nil {
			errs = append(errs, err)
			break
		}
		if err != nil {
			errs = append(errs, err)
		}

		name := displayName(p.root, path)
		printSummary(name, res)
		entries = append(entries, logEntry(name, res))
	}

	p.recordImports(entries)
	return errors.Join(errs...)
}

// importFiles resolves the command arguments, falling back to the inbox.
func importFiles(p *project, args []string) ([]string, error) {
	if len(args) > 0 {
		files := make([]string, len(args))
		for i, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, fmt.Errorf("resolving %s: %w", a, err)
			}
			files[i] = abs
		}
		return files, nil
	}

	inbox, err := importer.Scan(p.cfg.InboxDir(p.root))
	if err != nil {
		return nil, err
	}
	files := make([]string, len(inbox))
	for i, f := range inbox {
		files[i] = f.Path
	}
	return files, nil
}

// displayName is path relative to the ledger root when it lies inside it.
func displayName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func printSummary(name string, res *importer.Result) {
	fmt.Printf("Imported %s: %d transactions, %d categories created, %d reused, %d rows skipped\n",
		name, len(res.Transactions), len(res.Created), len(res.Reused), len(res.Skipped))
	for _, row := range res.Unresolved {
		fmt.Printf("  line %d: category %q not resolved, saved without category\n", row.Line, row.Category)
	}
}
