package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/csvstore"
	"github.com/tally-ledger/tally/internal/gitops"
	"github.com/tally-ledger/tally/internal/importer"
	"github.com/tally-ledger/tally/internal/importlog"
	"github.com/tally-ledger/tally/internal/logging"
	"github.com/tally-ledger/tally/internal/pgstore"
	"github.com/tally-ledger/tally/internal/server"
)

// project is a loaded ledger directory.
type project struct {
	root string
	cfg  *config.Config
	log  *logrus.Logger

	mu sync.Mutex // serialises import log writes and commits
}

func loadProject(repoDir string) (*project, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading %s (run `tally init` first?): %w", config.FileName, err)
	}
	return &project{
		root: root,
		cfg:  cfg,
		log:  logging.New(cfg.Log.Level, cfg.Log.Format),
	}, nil
}

// backend is an opened store pair plus its listing view.
type backend struct {
	categories   importer.CategoryStore
	transactions importer.TransactionStore
	ledger       server.Ledger
	close        func()
}

func (p *project) openBackend(ctx context.Context) (*backend, error) {
	switch p.cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.Connect(ctx, p.cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		s := pgstore.New(pool)
		return &backend{
			categories:   s.Categories(),
			transactions: s.Transactions(),
			ledger:       s,
			close:        pool.Close,
		}, nil
	default:
		l, err := csvstore.Open(p.cfg.DataDir(p.root))
		if err != nil {
			return nil, err
		}
		return &backend{
			categories:   l.Categories(),
			transactions: l.Transactions(),
			ledger:       l,
			close:        func() {},
		}, nil
	}
}

func (p *project) newImporter(b *backend) *importer.Importer {
	return importer.New(b.categories, b.transactions, importer.Options{
		FromLine: p.cfg.Import.FromLine,
		Logger:   p.log,
	})
}

// recordImports appends to the import log and, for a git-tracked csv ledger,
// commits the result. Failures are logged, not returned: the import itself
// has already been saved.
func (p *project) recordImports(entries []importlog.Entry) {
	if len(entries) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := importlog.Append(p.root, entries); err != nil {
		p.log.WithError(err).Warn("writing import log")
	}
	if !p.autoCommit() {
		return
	}

	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.File
	}
	msg := "import: " + joinNames(files)
	hash, err := gitops.CommitAll(p.root, msg, p.author())
	if err != nil {
		p.log.WithError(err).Warn("committing import")
		return
	}
	if hash != "" {
		p.log.WithField("commit", hash).Debug("committed import")
	}
}

func (p *project) autoCommit() bool {
	return p.cfg.Git.AutoCommit &&
		p.cfg.Store.Backend == config.BackendCSV &&
		gitops.IsRepo(p.root)
}

func (p *project) author() gitops.Author {
	return gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail}
}

func logEntry(file string, res *importer.Result) importlog.Entry {
	return importlog.Entry{
		Timestamp:         time.Now(),
		File:              file,
		Transactions:      len(res.Transactions),
		CategoriesCreated: len(res.Created),
		CategoriesReused:  len(res.Reused),
		RowsSkipped:       len(res.Skipped),
		RowsUnresolved:    len(res.Unresolved),
	}
}

func joinNames(names []string) string {
	const shown = 3
	if len(names) <= shown {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:shown], ", "), len(names)-shown)
}
