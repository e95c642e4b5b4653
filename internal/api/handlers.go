package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/musictext/core/cache"
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/pipeline"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/core/sqlite"
	"github.com/FocuswithJustin/musictext/internal/logging"
	"github.com/FocuswithJustin/musictext/internal/server"
	"github.com/FocuswithJustin/musictext/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ParseRequest is the JSON body of POST /parse.
type ParseRequest struct {
	Text   string `json:"text"`
	System string `json:"system,omitempty"`
	Store  bool   `json:"store,omitempty"`
}

// ParseResult is returned by POST /parse.
type ParseResult struct {
	ID       string          `json:"id,omitempty"`
	Document *score.Document `json:"document"`
	Duration string          `json:"duration"`
}

// SystemInfo describes a notation system.
type SystemInfo struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Uptime    string      `json:"uptime"`
	Store     bool        `json:"store"`
	Driver    string      `json:"driver,omitempty"`
	Tracing   bool        `json:"tracing"`
	Clients   int         `json:"websocket_clients"`
	CacheInfo cache.Stats `json:"cache"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "musictext API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /systems",
			"POST /parse",
			"GET /documents",
			"GET /documents/:id",
			"DELETE /documents/:id",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	info := HealthInfo{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Store:     s.store != nil,
		Tracing:   s.metrics.Enabled(),
		Clients:   s.hub.ClientCount(),
		CacheInfo: s.cache.Stats(),
	}
	if s.store != nil {
		info.Driver = sqlite.DriverType()
	}
	respond(w, http.StatusOK, info)
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	systems := []SystemInfo{}
	for _, sys := range notation.Systems() {
		systems = append(systems, SystemInfo{Name: sys.String(), Symbols: notation.Symbols(sys)})
	}
	respondList(w, systems, len(systems))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	req, err := decodeParseRequest(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := validation.ValidateText([]byte(req.Text)); err != nil {
		respondErr(w, errors.NewValidation("text", err.Error()))
		return
	}
	system, err := notation.ParseSystem(req.System)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SYSTEM", err.Error())
		return
	}
	if req.Store && s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISABLED", "Server was started without a document store")
		return
	}

	start := time.Now()
	doc, err := pipeline.Process(r.Context(), req.Text, s.pipelineOptions(system))
	if err != nil {
		respondErr(w, err)
		return
	}
	result := ParseResult{Document: doc, Duration: time.Since(start).String()}

	if req.Store {
		id, err := s.store.Save(r.Context(), doc, req.Text)
		if err != nil {
			respondErr(w, err)
			return
		}
		// doc may be shared with the cache
		stored := *doc
		stored.ID = id
		result.ID = id
		result.Document = &stored
		s.hub.BroadcastStored(id, &stored)
	}
	respond(w, http.StatusOK, result)
}

// decodeParseRequest reads a JSON ParseRequest, or plain notation text with
// the system and store flags in the query string.
func decodeParseRequest(r *http.Request) (*ParseRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	if !server.ValidateContentType(contentType, server.ParseContentTypes) {
		return nil, errors.NewUnsupported("content type", contentType)
	}

	if server.ValidateContentType(contentType, []string{"text/plain"}) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, bodyError(err)
		}
		q := r.URL.Query()
		store, _ := strconv.ParseBool(q.Get("store"))
		return &ParseRequest{Text: string(body), System: q.Get("system"), Store: store}, nil
	}

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, bodyError(err)
	}
	return &req, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.NewValidation("body", fmt.Sprintf("exceeds %d bytes", maxErr.Limit))
	}
	return errors.NewParse("JSON", "request body", err.Error())
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISABLED", "Server was started without a document store")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	summaries, err := s.store.List(r.Context(), limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondList(w, summaries, len(summaries))
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/documents/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Document ID is required")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("Invalid document ID: %v", err))
		return
	}
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISABLED", "Server was started without a document store")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.store.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), id); err != nil {
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

// Helper functions

func meta() *APIMeta {
	return &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data, Meta: meta()})
}

func respondList(w http.ResponseWriter, data any, total int) {
	m := meta()
	m.Total = total
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data, Meta: m})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    meta(),
	})
}

// respondErr maps a typed error onto a status code and error code.
func respondErr(w http.ResponseWriter, err error) {
	var (
		parseErr *errors.ParseError
		valErr   *errors.ValidationError
	)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrUnsupported):
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED", err.Error())
	case errors.As(err, &valErr) && valErr.Field == "body":
		respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		logging.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to write response", "error", err)
	}
}
