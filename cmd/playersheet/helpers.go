package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kyzn-15/g-sheet-api/internal/config"
	"github.com/kyzn-15/g-sheet-api/internal/gsheets"
	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/internal/retry"
	"github.com/kyzn-15/g-sheet-api/internal/sqlite"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// openOptions is the backoff used while connecting to the sheet at startup.
func openOptions() retry.RetryOptions {
	opts := retry.DefaultOptions()
	opts.MaxAttempts = 4
	opts.MaxInterval = 10 * time.Second
	opts.Classifier = openRetryable
	return opts
}

// openRetryable accepts sheet failures that a later attempt may not hit.
// Rejected credentials and missing spreadsheets or worksheets are final.
func openRetryable(err error) bool {
	var se *types.SheetError
	if !errors.As(err, &se) || se.Auth {
		return false
	}
	return !errors.Is(err, types.ErrSpreadsheetNotFound) && !errors.Is(err, types.ErrWorksheetNotFound)
}

// openSheet connects to the worksheet named by cfg, backing off between
// attempts on transient failures. The caller must Close the returned sheet.
func openSheet(ctx context.Context, cfg *config.AppConfig, l *logger.Logger) (types.Sheet, error) {
	opts := openOptions()
	opts.OnRetry = func(attempt int, err error) error {
		l.Warn("failed to open sheet, retrying",
			zap.String("backend", cfg.Sheet.Backend), zap.Int("attempt", attempt), zap.Error(err))
		return nil
	}

	var sheet types.Sheet
	err := retry.Do(ctx, func() error {
		var err error
		sheet, err = openBackend(ctx, cfg, l)
		return err
	}, opts)
	return sheet, err
}

func openBackend(ctx context.Context, cfg *config.AppConfig, l *logger.Logger) (types.Sheet, error) {
	switch cfg.Sheet.Backend {
	case types.BackendGoogle:
		return gsheets.Open(ctx, gsheets.ConfigFromSheet(cfg.Sheet), l)
	case types.BackendSQLite:
		return sqlite.Open(ctx, cfg.Sheet, l)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Sheet.Backend)
	}
}
