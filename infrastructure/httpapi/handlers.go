package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chat-server/domain"
	"chat-server/errors"
)

type credentialsResponse struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	token, err := s.auth.Register(req.Email, req.Nickname, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, credentialsResponse{AccessToken: string(token)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, credentialsResponse{AccessToken: string(token)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req credentialsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	token, err := s.auth.Refresh(req.AccessToken)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, credentialsResponse{AccessToken: string(token)})
}

type initializeSessionRequest struct {
	Name           string   `json:"session_name"`
	IsPrivate      bool     `json:"is_private"`
	ParticipantIDs []string `json:"participant_ids"`
}

type sessionResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"session_name"`
	IsPrivate    bool                 `json:"is_private"`
	CreatedAt    time.Time            `json:"created_at"`
	Participants []domain.Participant `json:"participants"`
}

func (s *Server) handleInitializeSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req initializeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	session, participants, err := s.chat.InitializeSession(req.Name, req.IsPrivate, req.ParticipantIDs, claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		ID:           session.ID,
		Name:         session.Name,
		IsPrivate:    session.IsPrivate,
		CreatedAt:    session.CreatedAt,
		Participants: participants,
	})
}

type postMessageRequest struct {
	MessageText string  `json:"message_text"`
	ReceiverID  *string `json:"receiver_id,omitempty"`
}

type postMessageResponse struct {
	Message      messageResponse      `json:"message"`
	Participants []domain.Participant `json:"participants"`
}

// handlePostMessage is the HTTP mirror of the socket sendMessage event, for
// clients that post without holding a live connection. Delivery to online
// users still happens.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	sessionID := r.PathValue("id")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	message, participants, err := s.chat.SendMessage(r.Context(), sessionID, claims.UserID, req.MessageText, req.ReceiverID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, postMessageResponse{
		Message:      toMessageResponses([]domain.Message{message})[0],
		Participants: participants,
	})
}

type messageResponse struct {
	ID         uint64    `json:"id"`
	SessionID  string    `json:"session_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty"`
	Text       string    `json:"message_text"`
	Lang       string    `json:"lang,omitempty"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:         m.ID,
			SessionID:  m.SessionID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Text:       m.Text,
			Lang:       m.Lang,
			IsPublic:   m.IsPublic,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out
}

// handleHistory reads paging and scoping filters from the query string.
// Booleans and integers that fail to parse are rejected, not defaulted.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	sessionID := r.PathValue("id")

	filter := domain.HistoryFilter{RequesterID: claims.UserID}
	query := r.URL.Query()

	if raw := query.Get("is_public"); raw != "" {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: is_public must be a boolean", errors.ErrValidation))
			return
		}
		filter.IsPublic = &isPublic
	}
	if raw := query.Get("counterparty_id"); raw != "" {
		filter.CounterpartyID = &raw
	}
	var err error
	if filter.Skip, err = parseCount(query.Get("skip")); err != nil {
		s.writeError(w, fmt.Errorf("%w: skip must be a non-negative integer", errors.ErrValidation))
		return
	}
	if filter.Take, err = parseCount(query.Get("take")); err != nil {
		s.writeError(w, fmt.Errorf("%w: take must be a non-negative integer", errors.ErrValidation))
		return
	}

	messages, err := s.chat.GetHistory(sessionID, claims.UserID, filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	return n, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	substring := r.URL.Query().Get("q")
	if substring == "" {
		s.writeError(w, fmt.Errorf("%w: q is required", errors.ErrValidation))
		return
	}

	messages, err := s.chat.SearchMessages(r.Context(), sessionID, substring)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

type addParticipantRequest struct {
	UserID    string `json:"user_id"`
	IsPrivate bool   `json:"is_private"`
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	sessionID := r.PathValue("id")

	var req addParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	participants, err := s.chat.AddParticipant(sessionID, req.UserID, claims.UserID, req.IsPrivate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, participants)
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	targetUserID := r.PathValue("userID")

	if err := s.chat.RemoveParticipant(sessionID, targetUserID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type editMessageRequest struct {
	MessageText string `json:"message_text"`
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: message id must be numeric", errors.ErrValidation))
		return
	}

	var req editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body", errors.ErrValidation))
		return
	}

	if err := s.chat.EditMessage(messageID, req.MessageText); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.chat.ListParticipants(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, participants)
}

type userResponse struct {
	ID       string `json:"id"`
	Nickname string `json:"nick_name"`
}

// handleListUsers is the directory clients use to find participant and
// receiver ids. Credentials never leave the repository.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Nickname: u.Nickname})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActiveUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.chat.ListOnline())
}
