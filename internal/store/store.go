// Package store implements the player row store on top of a types.Sheet.
//
// The worksheet is the source of truth: every operation reads from it, and
// writes are followed by a read-back so callers see what the sheet holds
// rather than what was sent. A missing row is a normal result, reported with
// a found flag; only failures of the sheet itself are returned as errors, and
// they are returned unchanged after being logged.
package store

import (
	"context"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/internal/metrics"
	"github.com/kyzn-15/g-sheet-api/internal/retry"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// idColumn is the 1-based column holding player ids.
const idColumn = 1

// headerRow is the 1-based row holding column names.
const headerRow = 1

// Options tunes the store's interaction with the sheet.
type Options struct {
	// RetryMaxAttempts bounds how often Update runs when the sheet rejects
	// credentials. Attempts after the first are preceded by a reconnect and
	// are not delayed.
	RetryMaxAttempts int

	// SettleDelay is how long Update waits after writing before it reads the
	// row back.
	SettleDelay time.Duration
}

// DefaultOptions returns one retry after an auth failure and a one second
// settle delay.
func DefaultOptions() Options {
	return Options{
		RetryMaxAttempts: 2,
		SettleDelay:      time.Second,
	}
}

// PlayerStore provides CRUD operations for players kept one per row in a
// worksheet whose first row is the header. It holds no locks; concurrent
// writers rely on whatever the sheet itself provides.
type PlayerStore struct {
	sheet  types.Sheet
	logger *logger.Logger
	opts   Options
}

// New creates a PlayerStore over sheet.
func New(sheet types.Sheet, l *logger.Logger, opts Options) *PlayerStore {
	if l == nil {
		l = logger.NewNop()
	}
	return &PlayerStore{
		sheet:  sheet,
		logger: l.With(zap.String("component", "store")),
		opts:   opts,
	}
}

// Init prepares the worksheet: an empty sheet gets the header row, and a
// sheet whose first row differs from types.Header is reported with a warning
// but otherwise used as is.
func (s *PlayerStore) Init(ctx context.Context) error {
	values, err := s.sheet.Values(ctx)
	if err != nil {
		s.logger.Error("failed to read sheet during init", err)
		return err
	}
	if len(values) == 0 {
		header := make([]any, len(types.Header))
		for i, col := range types.Header {
			header[i] = col
		}
		if err := s.sheet.AppendRow(ctx, header); err != nil {
			s.logger.Error("failed to write header row", err)
			return err
		}
		s.logger.Info("added header row to empty sheet")
		return nil
	}

	header, err := s.sheet.RowValues(ctx, headerRow)
	if err != nil {
		s.logger.Error("failed to read header row", err)
		return err
	}
	if !slices.Equal(header, types.Header) {
		s.logger.Warn("header row does not match expected columns",
			zap.Strings("header", header),
			zap.Strings("expected", types.Header))
	}
	return nil
}

// ListAll returns every player below the header, in sheet order.
func (s *PlayerStore) ListAll(ctx context.Context) ([]types.Player, error) {
	defer s.observe("list", time.Now())

	values, err := s.sheet.Values(ctx)
	if err != nil {
		return nil, s.fail("list", err)
	}
	if len(values) <= 1 {
		s.count("list", metrics.OutcomeOK)
		return []types.Player{}, nil
	}

	header := values[0]
	players := make([]types.Player, 0, len(values)-1)
	for _, row := range values[1:] {
		players = append(players, s.toPlayer(types.RowToFields(row, header)))
	}
	s.count("list", metrics.OutcomeOK)
	return players, nil
}

// Get returns the player in the first row whose id cell equals id.
func (s *PlayerStore) Get(ctx context.Context, id int) (types.Player, bool, error) {
	defer s.observe("get", time.Now())

	header, err := s.sheet.RowValues(ctx, headerRow)
	if err != nil {
		return types.Player{}, false, s.fail("get", err, zap.Int("id", id))
	}
	player, found, err := s.readByID(ctx, id, header)
	if err != nil {
		return types.Player{}, false, s.fail("get", err, zap.Int("id", id))
	}
	if !found {
		s.count("get", metrics.OutcomeNotFound)
		return types.Player{}, false, nil
	}
	s.count("get", metrics.OutcomeOK)
	return player, true, nil
}

// Create assigns the next id, appends the player and returns the row as the
// sheet stored it. When the appended row cannot be found again the locally
// built record is returned.
func (s *PlayerStore) Create(ctx context.Context, fields types.Fields) (types.Player, error) {
	defer s.observe("create", time.Now())

	next, err := s.nextID(ctx)
	if err != nil {
		return types.Player{}, s.fail("create", err)
	}
	player := types.PlayerFromFields(fields.Merge(types.Fields{types.ColumnID: next}))

	if err := s.sheet.AppendRow(ctx, player.Row()); err != nil {
		return types.Player{}, s.fail("create", err, zap.Int("id", next))
	}

	header, err := s.sheet.RowValues(ctx, headerRow)
	if err != nil {
		return types.Player{}, s.fail("create", err, zap.Int("id", next))
	}
	stored, found, err := s.readByID(ctx, next, header)
	if err != nil {
		return types.Player{}, s.fail("create", err, zap.Int("id", next))
	}
	s.count("create", metrics.OutcomeOK)
	if !found {
		s.logger.Warn("created row not found on read-back, returning local record", zap.Int("id", next))
		return player, nil
	}
	s.logger.Info("player created", zap.Int("id", next))
	return stored, nil
}

// Update merges patch over the stored player and writes the whole row back.
//
// Before anything else the sheet connection is refreshed; a failed refresh is
// logged and ignored. If the sheet then rejects credentials, the store
// reconnects and tries again, up to Options.RetryMaxAttempts attempts in
// total. An id key in patch is ignored.
func (s *PlayerStore) Update(ctx context.Context, id int, patch types.Fields) (types.Player, bool, error) {
	defer s.observe("update", time.Now())

	if err := s.Reconnect(ctx); err != nil {
		s.logger.Warn("connection refresh before update failed, continuing", zap.Error(err))
	}

	patch = withoutID(patch)

	var (
		player types.Player
		found  bool
	)
	opts := retry.Immediate(s.opts.RetryMaxAttempts, types.IsAuthError)
	opts.OnRetry = func(attempt int, err error) error {
		metrics.StoreRetriesTotal.Inc()
		s.logger.Warn("sheet rejected credentials, reconnecting and retrying",
			zap.Int("id", id), zap.Int("attempt", attempt), zap.Error(err))
		return s.Reconnect(ctx)
	}
	err := retry.Do(ctx, func() error {
		var err error
		player, found, err = s.updateOnce(ctx, id, patch)
		return err
	}, opts)
	if err != nil {
		return types.Player{}, false, s.fail("update", err, zap.Int("id", id))
	}
	if !found {
		s.count("update", metrics.OutcomeNotFound)
		return types.Player{}, false, nil
	}
	s.count("update", metrics.OutcomeOK)
	return player, true, nil
}

func (s *PlayerStore) updateOnce(ctx context.Context, id int, patch types.Fields) (types.Player, bool, error) {
	header, err := s.sheet.RowValues(ctx, headerRow)
	if err != nil {
		return types.Player{}, false, err
	}
	row, found, err := s.sheet.FindInColumn(ctx, strconv.Itoa(id), idColumn)
	if err != nil || !found {
		return types.Player{}, false, err
	}
	current, err := s.sheet.RowValues(ctx, row)
	if err != nil {
		return types.Player{}, false, err
	}

	s.logger.Debug("current data before update", zap.Int("id", id), zap.Strings("row", current))
	updated := s.toPlayer(types.RowToFields(current, header).Merge(patch))

	if err := s.sheet.UpdateRow(ctx, row, updated.Row()); err != nil {
		return types.Player{}, false, err
	}

	// The sheet is eventually consistent: a read straight after a write may
	// still return the old row. Waiting narrows that window without closing
	// it, so a read-back that fails or has the wrong shape falls back to the
	// record just written.
	if !s.settle(ctx) {
		return updated, true, nil
	}
	after, err := s.sheet.RowValues(ctx, row)
	if err != nil {
		s.logger.Warn("failed to read row after update, returning local record",
			zap.Int("id", id), zap.Error(err))
		return updated, true, nil
	}
	if len(after) != len(header) {
		metrics.StoreStaleReadsTotal.Inc()
		s.logger.Warn("row read after update does not match header length, returning local record",
			zap.Int("id", id), zap.Int("got", len(after)), zap.Int("want", len(header)))
		return updated, true, nil
	}
	return s.toPlayer(types.RowToFields(after, header)), true, nil
}

// Delete removes the player's row. It reports false when no row holds id.
func (s *PlayerStore) Delete(ctx context.Context, id int) (bool, error) {
	defer s.observe("delete", time.Now())

	row, found, err := s.sheet.FindInColumn(ctx, strconv.Itoa(id), idColumn)
	if err != nil {
		return false, s.fail("delete", err, zap.Int("id", id))
	}
	if !found {
		s.count("delete", metrics.OutcomeNotFound)
		return false, nil
	}
	if err := s.sheet.DeleteRow(ctx, row); err != nil {
		return false, s.fail("delete", err, zap.Int("id", id))
	}
	s.count("delete", metrics.OutcomeOK)
	s.logger.Info("player deleted", zap.Int("id", id))
	return true, nil
}

// Reconnect refreshes the sheet connection.
func (s *PlayerStore) Reconnect(ctx context.Context) error {
	s.logger.Debug("refreshing sheet connection")
	if err := s.sheet.Reconnect(ctx); err != nil {
		metrics.StoreReconnectsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return err
	}
	metrics.StoreReconnectsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return nil
}

// Close releases the underlying sheet.
func (s *PlayerStore) Close() error {
	return s.sheet.Close()
}

// nextID returns one more than the largest numeric id below the header, or 1.
// Cells that are not plain digits are skipped.
func (s *PlayerStore) nextID(ctx context.Context) (int, error) {
	ids, err := s.sheet.ColumnValues(ctx, idColumn)
	if err != nil {
		return 0, err
	}
	maxID := 0
	if len(ids) > 1 {
		for _, cell := range ids[1:] {
			if !types.IsDigits(cell) {
				continue
			}
			if n, err := strconv.Atoi(cell); err == nil && n > maxID {
				maxID = n
			}
		}
	}
	return maxID + 1, nil
}

func (s *PlayerStore) readByID(ctx context.Context, id int, header []string) (types.Player, bool, error) {
	row, found, err := s.sheet.FindInColumn(ctx, strconv.Itoa(id), idColumn)
	if err != nil || !found {
		return types.Player{}, false, err
	}
	values, err := s.sheet.RowValues(ctx, row)
	if err != nil {
		return types.Player{}, false, err
	}
	return s.toPlayer(types.RowToFields(values, header)), true, nil
}

func (s *PlayerStore) toPlayer(f types.Fields) types.Player {
	if raw, ok := f[types.ColumnID].(string); ok {
		s.logger.Warn("non-numeric id cell loaded as 0", zap.String("id", raw))
	}
	return types.PlayerFromFields(f)
}

// settle waits SettleDelay. It reports false if ctx ended first.
func (s *PlayerStore) settle(ctx context.Context) bool {
	if s.opts.SettleDelay <= 0 {
		return true
	}
	t := time.NewTimer(s.opts.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *PlayerStore) fail(op string, err error, fields ...zap.Field) error {
	s.count(op, metrics.OutcomeError)
	s.logger.Error("unexpected error in "+op, err, fields...)
	return err
}

func (s *PlayerStore) count(op, outcome string) {
	metrics.StoreOperationsTotal.WithLabelValues(op, outcome).Inc()
}

func (s *PlayerStore) observe(op string, start time.Time) {
	metrics.StoreOperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func withoutID(patch types.Fields) types.Fields {
	if _, ok := patch[types.ColumnID]; !ok {
		return patch
	}
	out := make(types.Fields, len(patch))
	for k, v := range patch {
		if k != types.ColumnID {
			out[k] = v
		}
	}
	return out
}
