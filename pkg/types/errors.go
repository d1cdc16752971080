package types

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrMissingFields = errors.New("missing required fields 'name' and 'age'")
	ErrNoUpdateData  = errors.New("no update data provided")
)

// Sheet resolution and addressing errors.
var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrWorksheetNotFound   = errors.New("worksheet not found")
	ErrRowOutOfRange       = errors.New("row out of range")
	ErrSheetClosed         = errors.New("sheet is closed")
)

// SheetError reports a failure of the external spreadsheet. Auth is set when
// the failure came from expired or rejected credentials, which a reconnect
// may cure.
type SheetError struct {
	Op   string
	Auth bool
	Err  error
}

func (e *SheetError) Error() string {
	if e.Auth {
		return fmt.Sprintf("sheet %s: auth: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sheet %s: %v", e.Op, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }

// IsAuthError reports whether err carries a SheetError flagged as an
// authentication failure.
func IsAuthError(err error) bool {
	var se *SheetError
	return errors.As(err, &se) && se.Auth
}
