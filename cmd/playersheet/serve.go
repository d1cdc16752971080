package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/internal/server"
	"github.com/kyzn-15/g-sheet-api/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := logger.New(cfg.Logger())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheet, err := openSheet(ctx, cfg, l)
	if err != nil {
		l.Error("failed to open sheet", err, zap.String("backend", cfg.Sheet.Backend))
		return err
	}

	players := store.New(sheet, l, cfg.StoreOptions())
	defer players.Close()

	if err := players.Init(ctx); err != nil {
		return fmt.Errorf("initialize sheet: %w", err)
	}

	srv := server.New(cfg.Server.Addr, players, l,
		server.WithReadiness(func(ctx context.Context) error {
			_, err := sheet.RowValues(ctx, 1)
			return err
		}),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("HTTP server stopped", err)
		}
		return err
	case <-ctx.Done():
	}

	l.Info("received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
