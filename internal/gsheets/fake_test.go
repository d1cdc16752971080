package gsheets

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeAPI serves the subset of the Sheets v4 and Drive v3 REST surface that
// Sheet uses, over a single in-memory worksheet.
type fakeAPI struct {
	mu sync.Mutex

	id    string
	name  string
	title string
	gid   int64
	rows  [][]string

	// failures holds HTTP status codes returned, one per request, before
	// requests are served normally.
	failures []int
	requests []string
}

func newFakeAPI(rows ...[]string) *fakeAPI {
	return &fakeAPI{
		id:    "sheet-123",
		name:  "Tugas Informatika",
		title: "Sheet1",
		gid:   0,
		rows:  rows,
	}
}

func (f *fakeAPI) failNext(codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, codes...)
}

func (f *fakeAPI) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// start serves f and returns the client options pointing at it.
func (f *fakeAPI) start(t *testing.T) []option.ClientOption {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithoutAuthentication(),
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if len(f.failures) > 0 {
		code := f.failures[0]
		f.failures = f.failures[1:]
		writeError(w, code)
		return
	}

	if r.URL.Path == "/files" {
		f.serveDrive(w, r)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/")
	if !ok {
		writeError(w, http.StatusNotFound)
		return
	}
	switch {
	case rest == f.id && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{
			"spreadsheetId": f.id,
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": f.gid, "title": f.title}},
			},
		})
	case rest == f.id+":batchUpdate":
		f.serveBatchUpdate(w, r)
	case strings.HasPrefix(rest, f.id+"/values/"):
		f.serveValues(w, r, strings.TrimPrefix(rest, f.id+"/values/"))
	default:
		writeError(w, http.StatusNotFound)
	}
}

func (f *fakeAPI) serveDrive(w http.ResponseWriter, r *http.Request) {
	files := []any{}
	if strings.Contains(r.URL.Query().Get("q"), "name = '"+f.name+"'") {
		files = append(files, map[string]any{"id": f.id, "name": f.name})
	}
	writeJSON(w, map[string]any{"files": files})
}

func (f *fakeAPI) serveBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheets.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}
	for _, q := range req.Requests {
		d := q.DeleteDimension
		if d == nil || d.Range.SheetId != f.gid || d.Range.Dimension != "ROWS" {
			writeError(w, http.StatusBadRequest)
			return
		}
		start, end := int(d.Range.StartIndex), int(d.Range.EndIndex)
		if start < 0 || end > len(f.rows) || start >= end {
			writeError(w, http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows[:start], f.rows[end:]...)
	}
	writeJSON(w, map[string]any{"spreadsheetId": f.id})
}

func (f *fakeAPI) serveValues(w http.ResponseWriter, r *http.Request, rng string) {
	if a1, ok := strings.CutSuffix(rng, ":append"); ok {
		if !strings.HasSuffix(a1, "!A1") {
			writeError(w, http.StatusBadRequest)
			return
		}
		vr, ok := decodeValueRange(w, r)
		if !ok {
			return
		}
		for _, row := range vr.Values {
			f.rows = append(f.rows, cellsToStrings(row))
		}
		writeJSON(w, map[string]any{"spreadsheetId": f.id})
		return
	}

	title, a1, _ := strings.Cut(rng, "!")
	if title != "'"+f.title+"'" {
		writeError(w, http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPut {
		vr, ok := decodeValueRange(w, r)
		if !ok {
			return
		}
		row, err := strconv.Atoi(strings.TrimLeft(strings.Split(a1, ":")[0], "A"))
		if err != nil || row < 1 || row > len(f.rows) || len(vr.Values) != 1 {
			writeError(w, http.StatusBadRequest)
			return
		}
		f.rows[row-1] = cellsToStrings(vr.Values[0])
		writeJSON(w, map[string]any{"spreadsheetId": f.id, "updatedRange": rng})
		return
	}

	var values [][]string
	switch {
	case a1 == "":
		values = f.rows
	case r.URL.Query().Get("majorDimension") == "COLUMNS":
		col := int(a1[0]-'A') + 1
		var cells []string
		for _, row := range f.rows {
			if col-1 < len(row) {
				cells = append(cells, row[col-1])
			} else {
				cells = append(cells, "")
			}
		}
		values = [][]string{cells}
	default:
		row, err := strconv.Atoi(strings.Split(a1, ":")[0])
		if err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
		if row <= len(f.rows) {
			values = [][]string{f.rows[row-1]}
		}
	}
	writeJSON(w, map[string]any{"range": rng, "values": values})
}

func decodeValueRange(w http.ResponseWriter, r *http.Request) (sheets.ValueRange, bool) {
	var vr sheets.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		writeError(w, http.StatusBadRequest)
		return vr, false
	}
	return vr, true
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if n, ok := c.(float64); ok {
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": http.StatusText(code),
		},
	})
}
