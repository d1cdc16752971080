package sqlite

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// loadJSONL inserts every row of the JSONL file at path into sheet_rows, in
// file order, and returns the number of rows loaded. Loading is
// transactional: on error the table is left empty. Lines that are not a
// JSON array are skipped; non-string cells are kept in their JSON text form.
func loadJSONL(ctx context.Context, db *sqlx.DB, path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO sheet_rows (cells) VALUES (:cells)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, rec := range records {
		cells, ok := rowFromRecord(rec)
		if !ok {
			continue
		}
		encoded, err := encodeCells(cells)
		if err != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rowRecord{Cells: encoded}); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", n+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return n, nil
}

// rowFromRecord decodes one JSONL line into cell strings.
func rowFromRecord(rec json.RawMessage) ([]string, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(rec, &raw); err != nil {
		return nil, false
	}
	cells := make([]string, len(raw))
	for i, c := range raw {
		var s string
		if err := json.Unmarshal(c, &s); err == nil {
			cells[i] = s
			continue
		}
		if string(c) != "null" {
			cells[i] = string(c)
		}
	}
	return cells, true
}
