package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/importer"
	"github.com/tally-ledger/tally/internal/importlog"
	"github.com/tally-ledger/tally/internal/server"
)

func newServeCommand() *cobra.Command {
	var repoDir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), repoDir, addr)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger directory")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")

	return cmd
}

func runServe(ctx context.Context, repoDir, addr string) error {
	p, err := loadProject(repoDir)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = p.cfg.Server.Addr
	}

	b, err := p.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	srv := server.New(b.ledger, p.newImporter(b), server.Options{
		MaxUploadBytes: p.cfg.Server.MaxUploadBytes,
		UploadDir:      p.cfg.UploadDir(p.root),
		Logger:         p.log,
		AfterImport: func(filename string, res *importer.Result) {
			p.recordImports([]importlog.Entry{logEntry(filename, res)})
		},
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	p.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
