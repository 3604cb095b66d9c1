package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"chat-server/errors"
	"chat-server/observability"
	"chat-server/repositories"
	"chat-server/services"
)

// Server exposes the chat operations over plain JSON endpoints, next to the
// websocket transport that carries the real-time traffic.
type Server struct {
	log     *slog.Logger
	chat    services.IChatService
	auth    services.IAuthService
	users   repositories.IUserRepository
	monitor *observability.Monitor
}

func NewServer(
	log *slog.Logger,
	chat services.IChatService,
	authService services.IAuthService,
	users repositories.IUserRepository,
	monitor *observability.Monitor,
) *Server {
	return &Server{log: log, chat: chat, auth: authService, users: users, monitor: monitor}
}

// Routes registers every endpoint on the given mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/token/refresh", s.handleRefresh)

	mux.HandleFunc("POST /api/sessions", s.requireAuth(s.handleInitializeSession))
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.requireAuth(s.handlePostMessage))
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.requireAuth(s.handleHistory))
	mux.HandleFunc("GET /api/sessions/{id}/search", s.requireAuth(s.handleSearch))
	mux.HandleFunc("GET /api/sessions/{id}/participants", s.requireAuth(s.handleListParticipants))
	mux.HandleFunc("POST /api/sessions/{id}/participants", s.requireAuth(s.handleAddParticipant))
	mux.HandleFunc("DELETE /api/sessions/{id}/participants/{userID}", s.requireAuth(s.handleRemoveParticipant))

	mux.HandleFunc("PATCH /api/messages/{id}", s.requireAuth(s.handleEditMessage))
	mux.HandleFunc("GET /api/users", s.requireAuth(s.handleListUsers))
	mux.HandleFunc("GET /api/users/active", s.requireAuth(s.handleActiveUsers))

	mux.HandleFunc("GET /debug/stats", s.handleDebugStats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Failed to encode response", "err", err)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps error kinds to HTTP statuses and a stable code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case stderrors.Is(err, errors.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case stderrors.Is(err, errors.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case stderrors.Is(err, errors.ErrPermission):
		status, code = http.StatusForbidden, "PERMISSION_DENIED"
	case stderrors.Is(err, errors.ErrValidation):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func (s *Server) handleDebugStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}
