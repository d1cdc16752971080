package types

import (
	"math"
	"strconv"
	"strings"
)

// Column names of the players worksheet, in storage order.
const (
	ColumnID           = "id"
	ColumnName         = "name"
	ColumnAge          = "age"
	ColumnGamesPlayed  = "games_played"
	ColumnHighestScore = "highest_score"
	ColumnCurrentScore = "current_score"
)

// Header is the expected first row of the players worksheet.
var Header = []string{
	ColumnID,
	ColumnName,
	ColumnAge,
	ColumnGamesPlayed,
	ColumnHighestScore,
	ColumnCurrentScore,
}

// numericColumns lists the columns coerced to integers when a row is read.
var numericColumns = map[string]bool{
	ColumnID:           true,
	ColumnAge:          true,
	ColumnGamesPlayed:  true,
	ColumnHighestScore: true,
	ColumnCurrentScore: true,
}

// EditableColumns are the fields a caller may change after creation.
var EditableColumns = []string{
	ColumnName,
	ColumnAge,
	ColumnGamesPlayed,
	ColumnHighestScore,
	ColumnCurrentScore,
}

// Player is a single row of the players worksheet.
//
// An id cell that is not a number is kept as a string in Fields but shows
// up here, and in API responses, as ID 0.
type Player struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	GamesPlayed  int    `json:"games_played"`
	HighestScore int    `json:"highest_score"`
	CurrentScore int    `json:"current_score"`
}

// Fields is the loosely typed form of a player: column name to cell value.
// Values read from the sheet are int or string; values decoded from JSON may
// also be float64 or nil.
type Fields map[string]any

// Merge returns a copy of f with every key of patch written over it.
func (f Fields) Merge(patch Fields) Fields {
	out := make(Fields, len(f)+len(patch))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// PlayerFromFields builds a Player from loosely typed fields. Missing or
// non-integer numeric fields become 0; a missing name becomes "".
func PlayerFromFields(f Fields) Player {
	return Player{
		ID:           intField(f, ColumnID),
		Name:         stringField(f, ColumnName),
		Age:          intField(f, ColumnAge),
		GamesPlayed:  intField(f, ColumnGamesPlayed),
		HighestScore: intField(f, ColumnHighestScore),
		CurrentScore: intField(f, ColumnCurrentScore),
	}
}

// Fields returns the player as a mapping with all six columns present.
func (p Player) Fields() Fields {
	return Fields{
		ColumnID:           p.ID,
		ColumnName:         p.Name,
		ColumnAge:          p.Age,
		ColumnGamesPlayed:  p.GamesPlayed,
		ColumnHighestScore: p.HighestScore,
		ColumnCurrentScore: p.CurrentScore,
	}
}

// Row returns the player's cells in Header order.
func (p Player) Row() []any {
	return []any{p.ID, p.Name, p.Age, p.GamesPlayed, p.HighestScore, p.CurrentScore}
}

// RowToFields maps a sheet row onto the given header. Numeric columns holding
// an empty cell load as 0, parseable cells as int, and anything else is kept
// as the raw string. Cells missing from a short row are treated as empty.
func RowToFields(row, header []string) Fields {
	f := make(Fields, len(header))
	for i, key := range header {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		if !numericColumns[key] {
			f[key] = cell
			continue
		}
		if cell == "" {
			f[key] = 0
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(cell)); err == nil {
			f[key] = n
		} else {
			f[key] = cell
		}
	}
	return f
}

// ValidateNewPlayer checks that f carries the fields required to create a
// player. Only presence is checked.
func ValidateNewPlayer(f Fields) error {
	if f == nil {
		return ErrMissingFields
	}
	if _, ok := f[ColumnName]; !ok {
		return ErrMissingFields
	}
	if _, ok := f[ColumnAge]; !ok {
		return ErrMissingFields
	}
	return nil
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func intField(f Fields, key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0
		}
		return int(v)
	case float64:
		// NaN fails both comparisons.
		if !(v >= float64(math.MinInt) && v < -float64(math.MinInt)) {
			return 0
		}
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringField(f Fields, key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
