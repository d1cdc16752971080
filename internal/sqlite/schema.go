package sqlite

// schemaSQL creates the single table holding a worksheet. Row order is
// row_id order; cells is a JSON array of strings.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sheet_rows (
	row_id INTEGER PRIMARY KEY AUTOINCREMENT,
	cells  TEXT NOT NULL
);
`
