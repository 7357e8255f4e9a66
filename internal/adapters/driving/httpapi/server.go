// Package httpapi exposes the data-source surface over HTTP for host
// platforms that drive the connection remotely: connection setup,
// teardown and on-demand sync.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driving"
	"github.com/crowdvoice-labs/gmailsource/internal/logger"
)

// Server exposes the auth flow and sync operations as a JSON API.
type Server struct {
	sourceID    string
	auth        driving.AuthFlow
	source      driving.DataSource
	checkpoints driven.CheckpointStore
}

// NewServer creates an HTTP API server over the given core services.
func NewServer(sourceID string, auth driving.AuthFlow, source driving.DataSource, checkpoints driven.CheckpointStore) *Server {
	return &Server{
		sourceID:    sourceID,
		auth:        auth,
		source:      source,
		checkpoints: checkpoints,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail", s.handleDescriptor)
	mux.HandleFunc("GET /gmail/initialize", s.handleInitialize)
	mux.HandleFunc("POST /gmail/authorize", s.handleAuthorize)
	mux.HandleFunc("POST /gmail/unauthorize", s.handleUnauthorize)
	mux.HandleFunc("POST /gmail/fetch", s.handleFetch)
	mux.HandleFunc("POST /gmail/send", s.handleSend)
	return mux
}

// handleDescriptor returns the static data-source metadata.
func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.SourceDescriptor())
}

// handleInitialize returns the provider authorization URL and the state the
// host must see on its redirect. The optional email query parameter becomes
// the login hint.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	url, state := s.auth.AuthURL(r.URL.Query().Get("email"))
	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": url,
		"state":    state,
	})
}

// authorizeRequest is the payload for the code exchange. Date marks the
// earliest message the first full sync should reach back to; absent, sync
// starts from now.
type authorizeRequest struct {
	Code string    `json:"code"`
	Date time.Time `json:"date,omitempty"`
}

// handleAuthorize exchanges the authorization code, persists the token and
// seeds the sync checkpoint with the requested first-sync date.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.auth.Authorize(r.Context(), req.Code)
	if err != nil {
		logger.Error("authorization failed: %v", err)
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	first := req.Date
	if first.IsZero() {
		first = time.Now()
	}
	cp := domain.SyncCheckpoint{FirstSyncDate: first}
	if err := s.checkpoints.Save(r.Context(), s.sourceID, cp); err != nil {
		logger.Error("seeding checkpoint: %v", err)
		writeError(w, http.StatusInternalServerError, "saving sync state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":         token.Email,
		"authenticated": true,
	})
}

// handleUnauthorize revokes the grant and removes the stored token. Local
// deletion happens even when revocation fails, so the response is always
// unauthenticated.
func (s *Server) handleUnauthorize(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Unauthorize(r.Context()); err != nil {
		logger.Error("unauthorize: %v", err)
		writeError(w, http.StatusInternalServerError, "removing stored token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// handleFetch runs one sync cycle and returns the resulting records.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	var req struct {
		Limit int `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		limit = req.Limit
	}

	records, err := s.source.Fetch(r.Context(), limit)
	if err != nil {
		logger.Error("fetch: %v", err)
		writeError(w, http.StatusBadGateway, "fetch failed")
		return
	}
	if records == nil {
		records = []domain.IngestionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// sendRequest is the payload for one outbound message.
type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Title   string `json:"title,omitempty"`
}

// handleSend delivers one outbound message through the connection.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		writeError(w, http.StatusBadRequest, "missing recipient")
		return
	}

	status, id := s.source.Send(r.Context(), req.To, req.Message, req.Title)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     string(status),
		"message_id": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
