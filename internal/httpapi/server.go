// ABOUTME: JSON HTTP API for auth, channels, memberships and messages
// ABOUTME: Registers routes on a ServeMux with bearer-token middleware

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/patiochat/patio/internal/auth"
	"github.com/patiochat/patio/internal/chat"
)

type contextKey string

const userIDKey contextKey = "userID"

// Server serves the patio HTTP API
type Server struct {
	chat     *chat.Service
	auth     *auth.Service
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// NewServer creates a new API server
func NewServer(chatSvc *chat.Service, authSvc *auth.Service, verifier auth.TokenVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		chat:     chatSvc,
		auth:     authSvc,
		verifier: verifier,
		logger:   logger.With("component", "httpapi"),
	}
}

// Routes registers all API routes on the given mux
func (s *Server) Routes(mux *http.ServeMux) {
	// Public
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// Authenticated
	mux.HandleFunc("POST /api/channels", s.requireAuth(s.handleCreateChannel))
	mux.HandleFunc("GET /api/channels", s.requireAuth(s.handleListChannels))
	mux.HandleFunc("POST /api/channels/{id}/members", s.requireAuth(s.handleJoinChannel))
	mux.HandleFunc("DELETE /api/channels/{id}/members/{userID}", s.requireAuth(s.handleLeaveChannel))
	mux.HandleFunc("GET /api/channels/{id}/members", s.requireAuth(s.handleListMembers))
	mux.HandleFunc("GET /api/channels/{id}/messages", s.requireAuth(s.handleListMessages))
	mux.HandleFunc("POST /api/messages", s.requireAuth(s.handleCreateMessage))
	mux.HandleFunc("DELETE /api/messages/{id}", s.requireAuth(s.handleDeleteMessage))
}

// requireAuth wraps a handler to require a valid bearer token
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.verifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// authedUserID returns the user id the bearer middleware put on the context
func authedUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON parses the request body into v, rejecting unknown fields
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
