// Package client is a typed HTTP client for the players API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// DefaultBaseURL is where the server listens by default.
const DefaultBaseURL = "http://127.0.0.1:5000"

// ErrNoValidFields is returned by UpdatePlayer when none of the given keys
// is an editable player field.
var ErrNoValidFields = errors.New("no valid fields to update")

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.StatusCode)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewPlayer is the body of a create request.
type NewPlayer struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	GamesPlayed  int    `json:"games_played"`
	HighestScore int    `json:"highest_score"`
	CurrentScore int    `json:"current_score"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after eight
// seconds.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPlayers returns every player.
func (c *Client) ListPlayers(ctx context.Context) ([]types.Player, error) {
	var players []types.Player
	if err := c.do(ctx, http.MethodGet, "/players", nil, http.StatusOK, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// GetPlayer returns one player. A missing player is an *APIError for which
// IsNotFound holds.
func (c *Client) GetPlayer(ctx context.Context, id int) (types.Player, error) {
	var p types.Player
	err := c.do(ctx, http.MethodGet, playerPath(id), nil, http.StatusOK, &p)
	return p, err
}

// CreatePlayer creates a player and returns it with its assigned id.
func (c *Client) CreatePlayer(ctx context.Context, np NewPlayer) (types.Player, error) {
	var p types.Player
	err := c.do(ctx, http.MethodPost, "/players", np, http.StatusCreated, &p)
	return p, err
}

// UpdatePlayer sends the editable fields of updates; other keys are
// dropped before the request is made.
func (c *Client) UpdatePlayer(ctx context.Context, id int, updates map[string]any) (types.Player, error) {
	if len(updates) == 0 {
		return types.Player{}, types.ErrNoUpdateData
	}
	payload := make(map[string]any, len(updates))
	for _, col := range types.EditableColumns {
		if v, ok := updates[col]; ok {
			payload[col] = v
		}
	}
	if len(payload) == 0 {
		return types.Player{}, ErrNoValidFields
	}

	var p types.Player
	err := c.do(ctx, http.MethodPatch, playerPath(id), payload, http.StatusOK, &p)
	return p, err
}

// DeletePlayer removes a player.
func (c *Client) DeletePlayer(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, playerPath(id), nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError builds an APIError from an {"error": ...} or {"status": ...}
// body; anything else leaves the message empty.
func decodeError(resp *http.Response) error {
	var body struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = body.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func playerPath(id int) string {
	return "/players/" + strconv.Itoa(id)
}
