package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyzn-15/g-sheet-api/internal/server"
	"github.com/kyzn-15/g-sheet-api/internal/sqlite"
	"github.com/kyzn-15/g-sheet-api/internal/store"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// newLocalAPI starts the real HTTP server over a store on a temporary local
// sheet.
func newLocalAPI(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	sheet, err := sqlite.Open(ctx, types.SheetConfig{
		Backend:         types.BackendSQLite,
		SpreadsheetName: "Tugas Informatika",
		Worksheet:       "Sheet1",
		DataDir:         t.TempDir(),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sheet.Close() })

	players := store.New(sheet, nil, store.Options{RetryMaxAttempts: 2})
	require.NoError(t, players.Init(ctx))

	srv := httptest.NewServer(server.New("", players, nil).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClientAgainstServer(t *testing.T) {
	c := newLocalAPI(t)
	ctx := context.Background()

	players, err := c.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)

	created, err := c.CreatePlayer(ctx, NewPlayer{Name: "John Doe", Age: 25, GamesPlayed: 10, HighestScore: 1200, CurrentScore: 800})
	require.NoError(t, err)
	assert.Equal(t, types.Player{ID: 1, Name: "John Doe", Age: 25, GamesPlayed: 10, HighestScore: 1200, CurrentScore: 800}, created)

	updated, err := c.UpdatePlayer(ctx, created.ID, map[string]any{"current_score": 950, "games_played": 11, "nickname": "JD"})
	require.NoError(t, err)
	assert.Equal(t, 950, updated.CurrentScore)
	assert.Equal(t, 11, updated.GamesPlayed)

	got, err := c.GetPlayer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, c.DeletePlayer(ctx, created.ID))

	_, err = c.GetPlayer(ctx, created.ID)
	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not found", apiErr.Message)

	err = c.DeletePlayer(ctx, created.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Player not found", apiErr.Message)
}

func TestUpdatePlayerFiltersLocally(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"age":31}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"name":"Ada","age":31,"games_played":0,"highest_score":0,"current_score":0}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.UpdatePlayer(ctx, 1, nil)
	assert.ErrorIs(t, err, types.ErrNoUpdateData)

	_, err = c.UpdatePlayer(ctx, 1, map[string]any{"id": 5, "nickname": "x"})
	assert.ErrorIs(t, err, ErrNoValidFields)
	assert.Zero(t, calls, "nothing is sent when no editable field remains")

	p, err := c.UpdatePlayer(ctx, 1, map[string]any{"age": 31, "id": 9})
	require.NoError(t, err)
	assert.Equal(t, 31, p.Age)
	assert.Equal(t, 1, calls)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error body", http.StatusInternalServerError, `{"error":"An unexpected error occurred"}`, "An unexpected error occurred"},
		{"status body", http.StatusNotFound, `{"status":"not found"}`, "not found"},
		{"non-json body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).ListPlayers(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClientHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.ListPlayers(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDemo(t *testing.T) {
	c := newLocalAPI(t)
	var out bytes.Buffer

	require.NoError(t, Demo(context.Background(), c, &out))

	transcript := out.String()
	assert.Contains(t, transcript, "Retrieved 0 players.")
	assert.Contains(t, transcript, "Player created successfully!")
	assert.Contains(t, transcript, "ID: 1, Name: John Doe, Age: 25, Games: 10, Highest Score: 1200, Current Score: 800")
	assert.Contains(t, transcript, "ID: 1, Name: John Doe, Age: 25, Games: 11, Highest Score: 1200, Current Score: 950")
	assert.Contains(t, transcript, "Player 1 deleted successfully!")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(transcript), "=== Demo complete ==="))

	verify := transcript[strings.Index(transcript, "=== Verifying deletion ==="):]
	assert.Contains(t, verify, "api status 404: not found")
}

func TestDemoStopsWhenCreateFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"An unexpected error occurred"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := Demo(context.Background(), NewClient(srv.URL), &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Error creating player: api status 500: An unexpected error occurred")
	assert.NotContains(t, out.String(), "=== Deleting player")
}
