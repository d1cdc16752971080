package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLSkipsBlankAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sheet1.jsonl")
	content := strings.Join([]string{
		`["id","name"]`,
		``,
		`{not json`,
		`["1","Ada"]`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `["id","name"]`, string(records[0]))
	assert.JSONEq(t, `["1","Ada"]`, string(records[1]))
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestWriteJSONLReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Sheet1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`["old"]`+"\n"), 0o644))

	records := []json.RawMessage{
		json.RawMessage(`["id","name"]`),
		json.RawMessage(`["1","Ada"]`),
	}
	require.NoError(t, writeJSONL(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\"id\",\"name\"]\n[\"1\",\"Ada\"]\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteJSONLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sheet1.jsonl")
	require.NoError(t, writeJSONL(path, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestRowFromRecord(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   []string
		ok     bool
	}{
		{"strings", `["1","Ada","30"]`, []string{"1", "Ada", "30"}, true},
		{"numbers kept as text", `[1,"Ada",30.5]`, []string{"1", "Ada", "30.5"}, true},
		{"null is empty", `["1",null,"3"]`, []string{"1", "", "3"}, true},
		{"empty array", `[]`, []string{}, true},
		{"object is skipped", `{"id":1}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rowFromRecord(json.RawMessage(tt.record))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
