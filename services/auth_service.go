package services

import (
	"chat-server/auth"
	"chat-server/errors"
	"chat-server/repositories"
	"fmt"
	"time"
)

type IAuthService interface {
	Register(email, nickname, password string) (Token, error)
	Login(email, password string) (Token, error)
	Refresh(tokenString string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(email, nickname, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Nickname: nickname,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, nickname, hashedPassword)
	if err != nil {
		return "", err // propagates ErrUserAlreadyExists if email is taken
	}

	token, err := auth.GenerateToken(userID, nickname, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Nickname, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

// Refresh re-verifies a still-valid token and issues a fresh one, allowing
// credential rotation without reconnecting.
func (s *AuthService) Refresh(tokenString string) (Token, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(claims.UserID, claims.Nickname, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
