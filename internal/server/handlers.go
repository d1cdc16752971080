package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Response bodies.
const (
	msgUnexpected   = "An unexpected error occurred"
	msgNotFound     = "Player not found"
	msgDeleted      = "Player deleted"
	msgMissingField = "Missing required fields 'name' and 'age'"
	msgNoUpdateData = "No update data provided"
)

type errorBody struct {
	Error string `json:"error"`
}

type statusBody struct {
	Status string `json:"status"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.ListAll(r.Context())
	if err != nil {
		s.unexpected(w, r, "error fetching players", err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, statusBody{Status: "not found"})
		return
	}
	player, found, err := s.players.Get(r.Context(), id)
	if err != nil {
		s.unexpected(w, r, "error fetching player", err, zap.Int("id", id))
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, statusBody{Status: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	fields, ok := readFields(w, r)
	if !ok || types.ValidateNewPlayer(fields) != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingField})
		return
	}
	player, err := s.players.Create(r.Context(), fields)
	if err != nil {
		s.unexpected(w, r, "error creating player", err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

// updatePlayer applies a partial update, then reads the player again so the
// response reflects the sheet. If that read finds nothing the update's own
// result is returned.
func (s *Server) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}
	patch, ok := readFields(w, r)
	if !ok || len(patch) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgNoUpdateData})
		return
	}

	s.logger.Debug("updating player", zap.Int("id", id), zap.Any("patch", patch))
	updated, found, err := s.players.Update(r.Context(), id, patch)
	if err != nil {
		s.unexpected(w, r, "error updating player", err, zap.Int("id", id))
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}

	verified, found, err := s.players.Get(r.Context(), id)
	if err != nil {
		s.unexpected(w, r, "error updating player", err, zap.Int("id", id))
		return
	}
	if !found {
		s.logger.Warn("updated player could not be read back, returning update result", zap.Int("id", id))
		writeJSON(w, http.StatusOK, updated)
		return
	}
	writeJSON(w, http.StatusOK, verified)
}

func (s *Server) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}
	deleted, err := s.players.Delete(r.Context(), id)
	if err != nil {
		s.unexpected(w, r, "error deleting player", err, zap.Int("id", id))
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msgDeleted})
}

// unexpected logs err and answers 500 without any detail.
func (s *Server) unexpected(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", RequestIDFrom(r.Context())))
	s.logger.Error(msg, err, fields...)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgUnexpected})
}

// playerID parses the {id} route variable. Ids too large for an int are
// reported as not ok; no such row can exist.
func playerID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil
}

// readFields decodes a JSON object body. An empty body, malformed JSON or a
// non-object value are all reported as not ok.
func readFields(w http.ResponseWriter, r *http.Request) (types.Fields, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return nil, false
	}
	var fields types.Fields
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
