// Package sqlite implements types.Sheet on local disk, for development and
// tests without a Google account.
//
// Each worksheet is a JSONL file holding one JSON array of cell strings per
// line; the file is the source of truth. On open the file is loaded into a
// fresh SQLite database, which answers reads. Every write goes to SQLite and
// then rewrites the JSONL file atomically.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// rowRecord is one row of the sheet_rows table.
type rowRecord struct {
	RowID int64  `db:"row_id"`
	Cells string `db:"cells"`
}

// Sheet is a types.Sheet stored under a data directory as
// <data_dir>/<spreadsheet>/<worksheet>.jsonl.
type Sheet struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	closed bool

	jsonlPath string
	// dbPaths are the two database files a reload alternates between, so a
	// new database is built beside the live one. slot indexes the live one.
	dbPaths [2]string
	slot    int
	logger  *logger.Logger
}

var _ types.Sheet = (*Sheet)(nil)

// Open loads the worksheet named by cfg, creating an empty one if needed.
func Open(ctx context.Context, cfg types.SheetConfig, l *logger.Logger) (*Sheet, error) {
	if cfg.DataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if cfg.Spreadsheet() == "" {
		return nil, types.ErrSheetNameEmpty
	}
	if cfg.Worksheet == "" {
		return nil, types.ErrWorksheetEmpty
	}
	if l == nil {
		l = logger.NewNop()
	}

	dir := filepath.Join(cfg.DataDir, safeName(cfg.Spreadsheet()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.SheetError{Op: "open", Err: err}
	}

	s := &Sheet{
		jsonlPath: filepath.Join(dir, safeName(cfg.Worksheet)+".jsonl"),
		dbPaths: [2]string{
			filepath.Join(dir, safeName(cfg.Worksheet)+".db"),
			filepath.Join(dir, safeName(cfg.Worksheet)+".reload.db"),
		},
		logger: l.With(
			zap.String("component", "sqlite"),
			zap.String("worksheet", cfg.Worksheet)),
	}
	if err := s.initJSONL(); err != nil {
		return nil, &types.SheetError{Op: "open", Err: err}
	}

	_ = os.Remove(s.dbPaths[1])
	db, err := s.attach(ctx, s.dbPaths[0])
	if err != nil {
		return nil, &types.SheetError{Op: "open", Err: err}
	}
	s.db = db
	return s, nil
}

// initJSONL creates an empty worksheet file if none exists.
func (s *Sheet) initJSONL() error {
	if _, err := os.Stat(s.jsonlPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(s.jsonlPath, nil, 0o644)
}

// attach opens a fresh database at path and loads the JSONL file into it.
// Any database left at path from an earlier run is discarded; on error the
// file is removed again.
func (s *Sheet) attach(ctx context.Context, path string) (*sqlx.DB, error) {
	_ = os.Remove(path)

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	n, err := loadJSONL(ctx, db, s.jsonlPath)
	if err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("load JSONL: %w", err)
	}
	s.logger.Debug("worksheet loaded", zap.String("path", s.jsonlPath), zap.Int("rows", n))
	return db, nil
}

// Values returns every row, padded to the widest row.
func (s *Sheet) Values(ctx context.Context) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrSheetClosed
	}

	rows, err := s.allRows(ctx)
	if err != nil {
		return nil, &types.SheetError{Op: "values", Err: err}
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows, nil
}

// RowValues returns the cells of row without trailing empty cells.
func (s *Sheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, types.ErrRowOutOfRange
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrSheetClosed
	}

	rec, found, err := s.rowAt(ctx, row)
	if err != nil {
		return nil, &types.SheetError{Op: "row values", Err: err}
	}
	if !found {
		return []string{}, nil
	}
	cells, err := decodeCells(rec.Cells)
	if err != nil {
		return nil, &types.SheetError{Op: "row values", Err: err}
	}
	return trimRight(cells), nil
}

// ColumnValues returns the cells of col down to the last non-empty one.
func (s *Sheet) ColumnValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, types.ErrRowOutOfRange
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrSheetClosed
	}

	var cells []string
	err := s.db.SelectContext(ctx, &cells,
		`SELECT COALESCE(json_extract(cells, ?), '') FROM sheet_rows ORDER BY row_id`,
		cellPath(col))
	if err != nil {
		return nil, &types.SheetError{Op: "column values", Err: err}
	}
	return trimRight(cells), nil
}

// FindInColumn returns the position of the first row whose cell in col
// equals value.
func (s *Sheet) FindInColumn(ctx context.Context, value string, col int) (int, bool, error) {
	if col < 1 {
		return 0, false, types.ErrRowOutOfRange
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, false, types.ErrSheetClosed
	}

	var positions []int
	err := s.db.SelectContext(ctx, &positions, `
		SELECT pos FROM (
			SELECT ROW_NUMBER() OVER (ORDER BY row_id) AS pos,
			       json_extract(cells, ?) AS cell
			FROM sheet_rows
		)
		WHERE cell = ?
		ORDER BY pos
		LIMIT 1`, cellPath(col), value)
	if err != nil {
		return 0, false, &types.SheetError{Op: "find", Err: err}
	}
	if len(positions) == 0 {
		return 0, false, nil
	}
	return positions[0], true, nil
}

// AppendRow adds cells after the last row.
func (s *Sheet) AppendRow(ctx context.Context, cells []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSheetClosed
	}

	encoded, err := encodeCells(formatCells(cells))
	if err != nil {
		return &types.SheetError{Op: "append", Err: err}
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO sheet_rows (cells) VALUES (:cells)`,
		rowRecord{Cells: encoded}); err != nil {
		return &types.SheetError{Op: "append", Err: err}
	}
	return s.persist(ctx, "append")
}

// UpdateRow overwrites the first len(cells) cells of row. Cells beyond them
// are left as they were.
func (s *Sheet) UpdateRow(ctx context.Context, row int, cells []any) error {
	if row < 1 || len(cells) == 0 {
		return types.ErrRowOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSheetClosed
	}

	rec, found, err := s.rowAt(ctx, row)
	if err != nil {
		return &types.SheetError{Op: "update", Err: err}
	}
	if !found {
		return types.ErrRowOutOfRange
	}
	existing, err := decodeCells(rec.Cells)
	if err != nil {
		return &types.SheetError{Op: "update", Err: err}
	}
	next := formatCells(cells)
	if len(existing) > len(next) {
		next = append(next, existing[len(next):]...)
	}
	encoded, err := encodeCells(next)
	if err != nil {
		return &types.SheetError{Op: "update", Err: err}
	}
	rec.Cells = encoded
	if _, err := s.db.NamedExecContext(ctx,
		`UPDATE sheet_rows SET cells = :cells WHERE row_id = :row_id`, rec); err != nil {
		return &types.SheetError{Op: "update", Err: err}
	}
	return s.persist(ctx, "update")
}

// DeleteRow removes row; the rows below it move up.
func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	if row < 1 {
		return types.ErrRowOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSheetClosed
	}

	rec, found, err := s.rowAt(ctx, row)
	if err != nil {
		return &types.SheetError{Op: "delete", Err: err}
	}
	if !found {
		return types.ErrRowOutOfRange
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sheet_rows WHERE row_id = ?`, rec.RowID); err != nil {
		return &types.SheetError{Op: "delete", Err: err}
	}
	return s.persist(ctx, "delete")
}

// Reconnect rebuilds the database from the JSONL file, picking up edits
// made to the file since it was loaded. If the reload fails the current
// database stays in use.
func (s *Sheet) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSheetClosed
	}

	next := 1 - s.slot
	db, err := s.attach(ctx, s.dbPaths[next])
	if err != nil {
		return &types.SheetError{Op: "reconnect", Err: err}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database after reload", zap.Error(err))
	}
	_ = os.Remove(s.dbPaths[s.slot])
	s.db = db
	s.slot = next
	return nil
}

// Close releases the database. Close is idempotent.
func (s *Sheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// persist writes every row back to the JSONL file. The caller must hold
// the write lock.
func (s *Sheet) persist(ctx context.Context, op string) error {
	var cells []string
	if err := s.db.SelectContext(ctx, &cells, `SELECT cells FROM sheet_rows ORDER BY row_id`); err != nil {
		return &types.SheetError{Op: op, Err: err}
	}
	records := make([]json.RawMessage, len(cells))
	for i, c := range cells {
		records[i] = json.RawMessage(c)
	}
	if err := writeJSONL(s.jsonlPath, records); err != nil {
		return &types.SheetError{Op: op, Err: fmt.Errorf("persist JSONL: %w", err)}
	}
	return nil
}

func (s *Sheet) allRows(ctx context.Context) ([][]string, error) {
	var encoded []string
	if err := s.db.SelectContext(ctx, &encoded, `SELECT cells FROM sheet_rows ORDER BY row_id`); err != nil {
		return nil, err
	}
	rows := make([][]string, len(encoded))
	for i, e := range encoded {
		cells, err := decodeCells(e)
		if err != nil {
			return nil, err
		}
		rows[i] = cells
	}
	return rows, nil
}

// rowAt returns the row at 1-based position row.
func (s *Sheet) rowAt(ctx context.Context, row int) (rowRecord, bool, error) {
	var recs []rowRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT row_id, cells FROM sheet_rows ORDER BY row_id LIMIT 1 OFFSET ?`, row-1)
	if err != nil || len(recs) == 0 {
		return rowRecord{}, false, err
	}
	return recs[0], true, nil
}

func cellPath(col int) string {
	return "$[" + strconv.Itoa(col-1) + "]"
}

func encodeCells(cells []string) (string, error) {
	b, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCells(s string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(s), &cells); err != nil {
		return nil, fmt.Errorf("decoding row: %w", err)
	}
	return cells, nil
}

// formatCells renders cell values the way a spreadsheet displays them.
func formatCells(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
		case string:
			out[i] = v
		case int:
			out[i] = strconv.Itoa(v)
		case int64:
			out[i] = strconv.FormatInt(v, 10)
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[i] = strings.ToUpper(strconv.FormatBool(v))
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func trimRight(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

// safeName keeps a spreadsheet or worksheet title usable as a file name.
func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
}
