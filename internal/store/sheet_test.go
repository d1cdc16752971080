package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// memSheet is an in-memory types.Sheet. Errors queued in errs are returned by
// the named method, one per call, before it falls through to normal
// behavior; a nil entry lets that call succeed.
type memSheet struct {
	rows [][]string
	errs map[string][]error

	// truncateNextRead makes the next RowValues call after an UpdateRow
	// return only the first two cells.
	truncateNextRead bool
	truncatePending  bool

	calls      map[string]int
	reconnects int
}

func newMemSheet(rows ...[]string) *memSheet {
	return &memSheet{
		rows:  rows,
		errs:  map[string][]error{},
		calls: map[string]int{},
	}
}

func newPlayerSheet(rows ...[]string) *memSheet {
	return newMemSheet(append([][]string{append([]string(nil), types.Header...)}, rows...)...)
}

func (m *memSheet) failWith(method string, errs ...error) {
	m.errs[method] = append(m.errs[method], errs...)
}

func (m *memSheet) take(method string) error {
	m.calls[method]++
	q := m.errs[method]
	if len(q) == 0 {
		return nil
	}
	m.errs[method] = q[1:]
	return q[0]
}

func (m *memSheet) Values(ctx context.Context) ([][]string, error) {
	if err := m.take("Values"); err != nil {
		return nil, err
	}
	width := 0
	for _, r := range m.rows {
		width = max(width, len(r))
	}
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out, nil
}

func (m *memSheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if err := m.take("RowValues"); err != nil {
		return nil, err
	}
	if row < 1 || row > len(m.rows) {
		return []string{}, nil
	}
	out := trimRight(m.rows[row-1])
	if m.truncatePending {
		m.truncatePending = false
		return out[:2], nil
	}
	return out, nil
}

func (m *memSheet) ColumnValues(ctx context.Context, col int) ([]string, error) {
	if err := m.take("ColumnValues"); err != nil {
		return nil, err
	}
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		if col-1 < len(r) {
			out[i] = r[col-1]
		}
	}
	return trimRight(out), nil
}

func (m *memSheet) FindInColumn(ctx context.Context, value string, col int) (int, bool, error) {
	if err := m.take("FindInColumn"); err != nil {
		return 0, false, err
	}
	for i, r := range m.rows {
		if col-1 < len(r) && r[col-1] == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (m *memSheet) AppendRow(ctx context.Context, cells []any) error {
	if err := m.take("AppendRow"); err != nil {
		return err
	}
	m.rows = append(m.rows, stringify(cells))
	return nil
}

func (m *memSheet) UpdateRow(ctx context.Context, row int, cells []any) error {
	if err := m.take("UpdateRow"); err != nil {
		return err
	}
	if row < 1 || row > len(m.rows) {
		return types.ErrRowOutOfRange
	}
	m.rows[row-1] = stringify(cells)
	m.truncatePending = m.truncateNextRead
	return nil
}

func (m *memSheet) DeleteRow(ctx context.Context, row int) error {
	if err := m.take("DeleteRow"); err != nil {
		return err
	}
	if row < 1 || row > len(m.rows) {
		return types.ErrRowOutOfRange
	}
	m.rows = append(m.rows[:row-1], m.rows[row:]...)
	return nil
}

func (m *memSheet) Reconnect(ctx context.Context) error {
	m.reconnects++
	return m.take("Reconnect")
}

func (m *memSheet) Close() error { return nil }

func stringify(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}

func trimRight(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return append([]string(nil), row[:end]...)
}

// mockSheet is a testify mock of types.Sheet for call-sequence assertions.
type mockSheet struct{ mock.Mock }

func (m *mockSheet) Values(ctx context.Context) ([][]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([][]string), args.Error(1)
}

func (m *mockSheet) RowValues(ctx context.Context, row int) ([]string, error) {
	args := m.Called(ctx, row)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSheet) ColumnValues(ctx context.Context, col int) ([]string, error) {
	args := m.Called(ctx, col)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSheet) FindInColumn(ctx context.Context, value string, col int) (int, bool, error) {
	args := m.Called(ctx, value, col)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockSheet) AppendRow(ctx context.Context, cells []any) error {
	return m.Called(ctx, cells).Error(0)
}

func (m *mockSheet) UpdateRow(ctx context.Context, row int, cells []any) error {
	return m.Called(ctx, row, cells).Error(0)
}

func (m *mockSheet) DeleteRow(ctx context.Context, row int) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockSheet) Reconnect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSheet) Close() error { return m.Called().Error(0) }
