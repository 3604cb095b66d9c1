package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/auth"
	"chat-server/errors"
	"chat-server/mocks"
	"chat-server/repositories"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		nickname := "tester"
		password := "ComplexPass123!x" // Must satisfy the complexity rules
		expectedUserID := "user-uuid"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(email, nickname, gomock.Not(gomock.Eq(password))).
			Return(expectedUserID, nil).
			Times(1)

		token, err := svc.Register(email, nickname, password)

		req.NoError(err)
		req.NotEmpty(token)

		claims, err := auth.ValidateToken(string(token))
		req.NoError(err)
		req.Equal(expectedUserID, claims.UserID)
		req.Equal(nickname, claims.Nickname)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("test@example.com", "tester", "simple")

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)
		email := "duplicate@example.com"
		password := "ComplexPass123!x"

		mockRepo.EXPECT().
			CreateUser(email, "tester", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		token, err := svc.Register(email, "tester", password)

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
		req.ErrorIs(err, errors.ErrConflict)
		req.Empty(token)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	password := "ComplexPass123!x"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	storedUser := repositories.User{
		ID:           "user-uuid",
		Email:        "test@example.com",
		Nickname:     "tester",
		PasswordHash: hash,
	}

	t.Run("should login with the right password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByEmail(storedUser.Email).Return(storedUser, nil)

		token, err := svc.Login(storedUser.Email, password)
		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should return a generic error on wrong password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByEmail(storedUser.Email).Return(storedUser, nil)

		token, err := svc.Login(storedUser.Email, "WrongPass123!xyz")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
	})

	t.Run("should return the same generic error for an unknown email", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("nobody@example.com").
			Return(repositories.User{}, errors.ErrNotFound)

		token, err := svc.Login("nobody@example.com", password)
		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, time.Hour)

	t.Run("should issue a fresh token from a valid one", func(t *testing.T) {
		req := require.New(t)

		original, err := auth.GenerateToken("user-uuid", "tester", time.Hour)
		req.NoError(err)

		refreshed, err := svc.Refresh(original)
		req.NoError(err)
		req.NotEmpty(refreshed)

		claims, err := auth.ValidateToken(string(refreshed))
		req.NoError(err)
		req.Equal("user-uuid", claims.UserID)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)

		expired, err := auth.GenerateToken("user-uuid", "tester", -time.Minute)
		req.NoError(err)

		_, err = svc.Refresh(expired)
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})
}
