// Package gsheets implements types.Sheet over the Google Sheets v4 API.
//
// A Sheet addresses one worksheet of one spreadsheet. The spreadsheet is
// given either by id or by name; names are resolved through Drive v3 on
// every connect. Rows and columns are 1-based, like the Sheets UI.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// Scopes requested for service-account credentials.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveReadonlyScope,
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Config selects the worksheet a Sheet operates on.
type Config struct {
	SpreadsheetName string
	SpreadsheetID   string
	Worksheet       string
	CredentialsFile string

	// ClientOptions are appended to every service constructed. Tests use
	// them to point the client at a local endpoint.
	ClientOptions []option.ClientOption
}

// ConfigFromSheet builds a Config from the application's sheet settings.
func ConfigFromSheet(c types.SheetConfig) Config {
	return Config{
		SpreadsheetName: c.SpreadsheetName,
		SpreadsheetID:   c.SpreadsheetID,
		Worksheet:       c.Worksheet,
		CredentialsFile: c.CredentialsFile,
	}
}

// conn is everything established by a connect. It is replaced as a whole
// on Reconnect.
type conn struct {
	sheets        *sheets.Service
	spreadsheetID string
	worksheetID   int64
}

// Sheet is a types.Sheet backed by a Google worksheet.
type Sheet struct {
	cfg    Config
	logger *logger.Logger

	mu     sync.RWMutex
	conn   *conn
	closed bool
}

var _ types.Sheet = (*Sheet)(nil)

// Open connects to the configured worksheet.
func Open(ctx context.Context, cfg Config, l *logger.Logger) (*Sheet, error) {
	if l == nil {
		l = logger.NewNop()
	}
	s := &Sheet{
		cfg:    cfg,
		logger: l.With(zap.String("component", "gsheets")),
	}
	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = c
	return s, nil
}

func (s *Sheet) connect(ctx context.Context) (*conn, error) {
	opts, err := s.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, classify("connect", err)
	}

	id := s.cfg.SpreadsheetID
	if id == "" {
		id, err = s.lookupSpreadsheet(ctx, opts)
		if err != nil {
			return nil, err
		}
	}

	ss, err := svc.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrSpreadsheetNotFound, id)
		}
		return nil, classify("open spreadsheet", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.cfg.Worksheet {
			s.logger.Info("connected to worksheet",
				zap.String("spreadsheet_id", id),
				zap.String("worksheet", s.cfg.Worksheet))
			return &conn{sheets: svc, spreadsheetID: id, worksheetID: sh.Properties.SheetId}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", types.ErrWorksheetNotFound, s.cfg.Worksheet)
}

// clientOptions loads credentials from disk on every call so a rotated key
// file is picked up by Reconnect.
func (s *Sheet) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if s.cfg.CredentialsFile != "" {
		data, err := os.ReadFile(s.cfg.CredentialsFile)
		if err != nil {
			return nil, &types.SheetError{Op: "read credentials", Auth: true, Err: err}
		}
		creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
		if err != nil {
			return nil, &types.SheetError{Op: "parse credentials", Auth: true, Err: err}
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	return append(opts, s.cfg.ClientOptions...), nil
}

func (s *Sheet) lookupSpreadsheet(ctx context.Context, opts []option.ClientOption) (string, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", classify("connect drive", err)
	}
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(s.cfg.SpreadsheetName), spreadsheetMimeType)
	list, err := svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", classify("find spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %s", types.ErrSpreadsheetNotFound, s.cfg.SpreadsheetName)
	}
	return list.Files[0].Id, nil
}

func (s *Sheet) current() (*conn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrSheetClosed
	}
	return s.conn, nil
}

// Values returns every row of the worksheet, padded to the widest row.
func (s *Sheet) Values(ctx context.Context) ([][]string, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	resp, err := c.sheets.Spreadsheets.Values.Get(c.spreadsheetID, quoteTitle(s.cfg.Worksheet)).
		Context(ctx).Do()
	if err != nil {
		return nil, classify("values", err)
	}
	return padRows(toStrings(resp.Values)), nil
}

// RowValues returns the cells of row, without trailing empty cells. A row
// beyond the data yields an empty slice.
func (s *Sheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, types.ErrRowOutOfRange
	}
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!%d:%d", quoteTitle(s.cfg.Worksheet), row, row)
	resp, err := c.sheets.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify("row values", err)
	}
	rows := toStrings(resp.Values)
	if len(rows) == 0 {
		return []string{}, nil
	}
	return trimRight(rows[0]), nil
}

// ColumnValues returns the cells of col from the first row down to the
// last non-empty one.
func (s *Sheet) ColumnValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, types.ErrRowOutOfRange
	}
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	letter := ColumnLetter(col)
	rng := fmt.Sprintf("%s!%s:%s", quoteTitle(s.cfg.Worksheet), letter, letter)
	resp, err := c.sheets.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		MajorDimension("COLUMNS").Context(ctx).Do()
	if err != nil {
		return nil, classify("column values", err)
	}
	cols := toStrings(resp.Values)
	if len(cols) == 0 {
		return []string{}, nil
	}
	return trimRight(cols[0]), nil
}

// FindInColumn returns the first row whose cell in col equals value.
func (s *Sheet) FindInColumn(ctx context.Context, value string, col int) (int, bool, error) {
	cells, err := s.ColumnValues(ctx, col)
	if err != nil {
		return 0, false, err
	}
	for i, cell := range cells {
		if cell == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// AppendRow adds cells as a new row after the last row with data.
func (s *Sheet) AppendRow(ctx context.Context, cells []any) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}
	_, err = c.sheets.Spreadsheets.Values.Append(c.spreadsheetID, quoteTitle(s.cfg.Worksheet)+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return classify("append", err)
}

// UpdateRow overwrites row from column A through as many columns as cells
// holds.
func (s *Sheet) UpdateRow(ctx context.Context, row int, cells []any) error {
	if row < 1 || len(cells) == 0 {
		return types.ErrRowOutOfRange
	}
	c, err := s.current()
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", quoteTitle(s.cfg.Worksheet), row, ColumnLetter(len(cells)), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}
	_, err = c.sheets.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return classify("update", err)
}

// DeleteRow removes row, shifting the rows below it up.
func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	if row < 1 {
		return types.ErrRowOutOfRange
	}
	c, err := s.current()
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         c.worksheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err = c.sheets.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return classify("delete", err)
}

// Reconnect reloads credentials and resolves the spreadsheet and worksheet
// again. On failure the previous connection stays in use.
func (s *Sheet) Reconnect(ctx context.Context) error {
	if _, err := s.current(); err != nil {
		return err
	}
	c, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSheetClosed
	}
	s.conn = c
	return nil
}

// Close marks the sheet closed. Later calls return types.ErrSheetClosed.
func (s *Sheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.conn = nil
	return nil
}

// classify wraps an API failure in a types.SheetError, flagging rejected
// credentials as auth failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *types.SheetError
	if errors.As(err, &se) {
		return err
	}
	return &types.SheetError{Op: op, Auth: isAuthFailure(err), Err: err}
}

func isAuthFailure(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return true
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) && ge.Code == http.StatusUnauthorized {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "token expired")
}

func isNotFound(err error) bool {
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == http.StatusNotFound
}

// ColumnLetter returns the A1 name of the 1-based column n: 1 is A, 27 is AA.
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				out[i][j] = fmt.Sprint(cell)
			}
		}
	}
	return out
}

func padRows(rows [][]string) [][]string {
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
	return rows
}

func trimRight(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
