package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/auth"
	"chat-server/domain"
	"chat-server/errors"
	"chat-server/mocks"
	"chat-server/observability"
	"chat-server/runtime"
	"chat-server/services"
)

type apiFixture struct {
	chat  *mocks.MockIChatService
	users *mocks.MockIUserRepository
	mux   *http.ServeMux
}

func newAPIFixture(t *testing.T) *apiFixture {
	ctrl := gomock.NewController(t)
	f := &apiFixture{
		chat:  mocks.NewMockIChatService(ctrl),
		users: mocks.NewMockIUserRepository(ctrl),
		mux:   http.NewServeMux(),
	}
	log := logs.GetLoggerFromString("ERROR")
	authService := services.NewAuthService(f.users, time.Hour)
	monitor := observability.NewMonitor(log, runtime.NewPresence())
	NewServer(log, f.chat, authService, f.users, monitor).Routes(f.mux)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "tester", time.Hour)
	require.NoError(t, err)
	return token
}

func TestAPI_Register(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.users.EXPECT().
		CreateUser("alice@example.com", "alice", gomock.Any()).
		Return("user-uuid", nil)

	rec := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email":    "alice@example.com",
		"nickname": "alice",
		"password": "ComplexPass123!x",
	})

	req.Equal(http.StatusCreated, rec.Code)
	var resp credentialsResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.NotEmpty(resp.AccessToken)
}

func TestAPI_Register_WeakPassword(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email":    "alice@example.com",
		"nickname": "alice",
		"password": "short",
	})

	req.Equal(http.StatusBadRequest, rec.Code)
	var resp errorResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("INVALID_ARGUMENT", resp.Code)
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/users/active", "", nil)
	req.Equal(http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users/active", "not-a-jwt", nil)
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func TestAPI_InitializeSession(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.chat.EXPECT().
		InitializeSession("lobby", false, []string{"user-b"}, "user-a").
		Return(
			domain.Session{ID: "session-1", Name: "lobby"},
			[]domain.Participant{{ID: "user-a", Nickname: "alice"}, {ID: "user-b", Nickname: "bob"}},
			nil,
		)

	rec := f.do(t, http.MethodPost, "/api/sessions", bearerFor(t, "user-a"), map[string]any{
		"session_name":    "lobby",
		"is_private":      false,
		"participant_ids": []string{"user-b"},
	})

	req.Equal(http.StatusCreated, rec.Code)
	var resp sessionResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("session-1", resp.ID)
	req.Len(resp.Participants, 2)
}

func TestAPI_History_FilterParsing(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.chat.EXPECT().
		GetHistory("session-1", "user-a", domain.HistoryFilter{
			RequesterID: "user-a",
			IsPublic:    lo.ToPtr(true),
			Skip:        5,
			Take:        10,
		}).
		Return([]domain.Message{{ID: 1, Text: "hello"}}, nil)

	rec := f.do(t, http.MethodGet,
		"/api/sessions/session-1/messages?is_public=true&skip=5&take=10",
		bearerFor(t, "user-a"), nil)

	req.Equal(http.StatusOK, rec.Code)
	var messages []messageResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal("hello", messages[0].Text)
}

func TestAPI_History_RejectsBadQuery(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet,
		"/api/sessions/session-1/messages?skip=-2",
		bearerFor(t, "user-a"), nil)
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet,
		"/api/sessions/session-1/messages?is_public=banana",
		bearerFor(t, "user-a"), nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_ErrorKindMapping(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := bearerFor(t, "user-a")

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: session ghost", errors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: already joined", errors.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: not yours", errors.ErrPermission), http.StatusForbidden, "PERMISSION_DENIED"},
	}
	for _, tc := range cases {
		f.chat.EXPECT().
			AddParticipant("session-1", "user-b", "user-a", false).
			Return(nil, tc.err)

		rec := f.do(t, http.MethodPost, "/api/sessions/session-1/participants", token,
			map[string]any{"user_id": "user-b", "is_private": false})

		req.Equal(tc.status, rec.Code)
		var resp errorResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.Equal(tc.code, resp.Code)
	}
}

func TestAPI_RemoveParticipant(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.chat.EXPECT().RemoveParticipant("session-1", "user-b").Return(nil)

	rec := f.do(t, http.MethodDelete, "/api/sessions/session-1/participants/user-b",
		bearerFor(t, "user-a"), nil)
	req.Equal(http.StatusNoContent, rec.Code)
}

func TestAPI_PostMessage(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	receiver := "user-b"
	stored := domain.Message{
		ID:         7,
		SessionID:  "session-1",
		SenderID:   "user-a",
		ReceiverID: &receiver,
		Text:       "over http",
		CreatedAt:  time.Now().UTC(),
	}
	f.chat.EXPECT().
		SendMessage(gomock.Any(), "session-1", "user-a", "over http", gomock.Eq(&receiver)).
		Return(stored, []domain.Participant{{ID: "user-a"}, {ID: "user-b"}}, nil)

	rec := f.do(t, http.MethodPost, "/api/sessions/session-1/messages",
		bearerFor(t, "user-a"), map[string]any{
			"message_text": "over http",
			"receiver_id":  receiver,
		})
	req.Equal(http.StatusCreated, rec.Code)

	var body struct {
		Message      messageResponse      `json:"message"`
		Participants []domain.Participant `json:"participants"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal(uint64(7), body.Message.ID)
	req.Equal("over http", body.Message.Text)
	req.Len(body.Participants, 2)
}

func TestAPI_ListParticipants(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.chat.EXPECT().
		ListParticipants("session-1").
		Return([]domain.Participant{{ID: "user-a", Nickname: "alice"}}, nil)

	rec := f.do(t, http.MethodGet, "/api/sessions/session-1/participants",
		bearerFor(t, "user-a"), nil)
	req.Equal(http.StatusOK, rec.Code)

	var participants []domain.Participant
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &participants))
	req.Equal([]domain.Participant{{ID: "user-a", Nickname: "alice"}}, participants)
}

func TestAPI_ListUsers(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.users.EXPECT().ListUsers().Return([]domain.User{
		{ID: "user-a", Nickname: "alice"},
		{ID: "user-b", Nickname: "bob"},
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/users", bearerFor(t, "user-a"), nil)
	req.Equal(http.StatusOK, rec.Code)

	var users []map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &users))
	req.Len(users, 2)
	req.Equal("user-a", users[0]["id"])
	req.Equal("alice", users[0]["nick_name"])
}

func TestAPI_EditMessage(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.chat.EXPECT().EditMessage(uint64(42), "fixed").Return(nil)

	rec := f.do(t, http.MethodPatch, "/api/messages/42", bearerFor(t, "admin"),
		map[string]string{"message_text": "fixed"})
	req.Equal(http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/messages/not-a-number", bearerFor(t, "admin"),
		map[string]string{"message_text": "fixed"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_DebugStats(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/debug/stats", "", nil)
	req.Equal(http.StatusOK, rec.Code)

	var stats observability.Stats
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	req.Zero(stats.OnlineUsers)
}
