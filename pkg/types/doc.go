// Package types defines the player record model, the Sheet interface for the
// backing spreadsheet, sheet configuration and the standard errors shared by
// the store, the sheet backends and the HTTP facade.
package types
