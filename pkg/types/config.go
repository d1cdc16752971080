package types

import "errors"

// SheetConfig selects and addresses the backing spreadsheet.
type SheetConfig struct {
	Backend         string `mapstructure:"backend"`
	SpreadsheetName string `mapstructure:"spreadsheet_name"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Worksheet       string `mapstructure:"worksheet"`
	CredentialsFile string `mapstructure:"credentials_file"`
	DataDir         string `mapstructure:"data_dir"`
}

// Supported backend names.
const (
	BackendGoogle = "google"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrSheetNameEmpty   = errors.New("spreadsheet name or id must not be empty")
	ErrWorksheetEmpty   = errors.New("worksheet must not be empty")
	ErrCredentialsEmpty = errors.New("credentials file must not be empty")
	ErrDataDirEmpty     = errors.New("data directory must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendGoogle: true,
	BackendSQLite: true,
}

// Validate checks that the SheetConfig is well-formed for its backend.
func (c SheetConfig) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SpreadsheetName == "" && c.SpreadsheetID == "" {
		return ErrSheetNameEmpty
	}
	if c.Worksheet == "" {
		return ErrWorksheetEmpty
	}
	switch c.Backend {
	case BackendGoogle:
		if c.CredentialsFile == "" {
			return ErrCredentialsEmpty
		}
	case BackendSQLite:
		if c.DataDir == "" {
			return ErrDataDirEmpty
		}
	}
	return nil
}

// Spreadsheet returns the name the sheet is addressed by: the id when set,
// otherwise the spreadsheet name.
func (c SheetConfig) Spreadsheet() string {
	if c.SpreadsheetID != "" {
		return c.SpreadsheetID
	}
	return c.SpreadsheetName
}
