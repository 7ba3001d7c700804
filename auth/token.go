package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campus-chat/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator validates handshake tokens issued by the account service.
// Token issuance itself lives outside the chat core; this side only
// verifies signature and expiry. The signing key is injected from
// configuration, never hardcoded.
type Authenticator struct {
	key []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{key: []byte(secret)}
}

// GenerateToken creates a signed JWT for a specific user. Used by tests
// and local tooling; production tokens come from the account service.
func (a *Authenticator) GenerateToken(userID, username string, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "campus-chat",
		},
	}

	// HS256: HMAC with SHA256, symmetric with the account service.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.key)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func (a *Authenticator) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidToken
}
