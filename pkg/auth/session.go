package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chromedash/chromedash/pkg/common"
)

const (
	sessionIssuer     = "chromedash"
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// Claims contains the JWT claims for a user session
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager handles JWT session creation and validation
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a new session manager. Without a secret a random
// one is generated and sessions do not survive a restart.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if secret == "" {
		b := make([]byte, 32)
		rand.Read(b)
		secret = hex.EncodeToString(b)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Create signs a session token for email.
func (s *SessionManager) Create(email string) (string, *Claims, error) {
	if email == "" {
		return "", nil, errors.New("email required")
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        common.GenerateSessionID(),
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Validate parses and validates a JWT token
func (s *SessionManager) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Email != "" {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
