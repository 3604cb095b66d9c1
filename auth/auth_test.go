package auth

import (
	"chat-server/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken_And_Validate(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-42", "Alice", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
	req.Equal("Alice", claims.Nickname)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-42", "Alice", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestValidateToken_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken("not.a.jwt")
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestHashPassword_Roundtrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3rC0mplex!Pass")
	req.NoError(err)

	match, err := ComparePassword("Sup3rC0mplex!Pass", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1!", hash)
	req.NoError(err)
	req.False(match)
}

func TestValidateRegister(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{Email: "a@b.com", Nickname: "Alice", Password: "Sup3rC0mplex!Pass"})
	req.NoError(err)

	err = ValidateRegister(RegisterRequest{Email: "a@b.com", Nickname: "Alice", Password: "alllowercasebutlong"})
	req.ErrorIs(err, errors.ErrInvalidPassword)

	err = ValidateRegister(RegisterRequest{Email: "not-an-email", Nickname: "Alice", Password: "Sup3rC0mplex!Pass"})
	req.Error(err)
}
