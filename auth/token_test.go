package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campus-chat/errors"
)

func TestAuthenticator_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	authenticator := NewAuthenticator("test-secret")

	token, err := authenticator.GenerateToken("student-7", "Léa", 1*time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := authenticator.ValidateToken(token)
	req.NoError(err)
	req.Equal("student-7", claims.UserID)
	req.Equal("Léa", claims.Username)
	req.Equal("campus-chat", claims.Issuer)
}

func TestAuthenticator_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	authenticator := NewAuthenticator("test-secret")

	token, err := authenticator.GenerateToken("student-7", "Léa", -1*time.Minute)
	req.NoError(err)

	_, err = authenticator.ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestAuthenticator_Rejects_Wrong_Key(t *testing.T) {
	req := require.New(t)
	issuer := NewAuthenticator("account-service-secret")
	verifier := NewAuthenticator("some-other-secret")

	token, err := issuer.GenerateToken("student-7", "Léa", 1*time.Hour)
	req.NoError(err)

	_, err = verifier.ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestAuthenticator_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	authenticator := NewAuthenticator("test-secret")

	_, err := authenticator.ValidateToken("not.a.token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}
