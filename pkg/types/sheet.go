package types

import "context"

// Sheet is a handle on one worksheet of an external spreadsheet. Rows and
// columns are 1-based, matching the spreadsheet's own addressing.
//
// Implementations do no coordination of their own; each call is a single
// request against the backing store and is visible to later calls only as
// far as that store's consistency allows.
type Sheet interface {
	// Values returns every row, padded with empty cells to the widest row.
	Values(ctx context.Context) ([][]string, error)

	// RowValues returns one row with trailing empty cells trimmed.
	RowValues(ctx context.Context, row int) ([]string, error)

	// ColumnValues returns one column, header included.
	ColumnValues(ctx context.Context, col int) ([]string, error)

	// FindInColumn returns the row of the first cell in col equal to value.
	FindInColumn(ctx context.Context, value string, col int) (int, bool, error)

	// AppendRow adds a row after the last non-empty row.
	AppendRow(ctx context.Context, cells []any) error

	// UpdateRow overwrites the cells of row starting at column A.
	UpdateRow(ctx context.Context, row int, cells []any) error

	// DeleteRow removes row and shifts the rows below it up.
	DeleteRow(ctx context.Context, row int) error

	// Reconnect discards the current session and opens a new one, picking
	// up fresh credentials.
	Reconnect(ctx context.Context) error

	// Close releases the handle.
	Close() error
}
