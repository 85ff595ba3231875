package auth

import (
	"context"

	"github.com/chromedash/chromedash/pkg/types"
)

// TokenValidator resolves bearer tokens into identities.
type TokenValidator interface {
	ValidateAdminToken(token string) bool
	ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error)
}

// SessionValidator checks the admin token first, then session JWTs.
type SessionValidator struct {
	adminToken string
	sessions   *SessionManager
}

func NewSessionValidator(adminToken string, sessions *SessionManager) *SessionValidator {
	return &SessionValidator{adminToken: adminToken, sessions: sessions}
}

func (v *SessionValidator) ValidateAdminToken(token string) bool {
	return v.adminToken != "" && token == v.adminToken
}

func (v *SessionValidator) ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error) {
	claims, err := v.sessions.Validate(token)
	if err != nil {
		return nil, err
	}
	return &types.AuthInfo{
		TokenType: types.TokenTypeSession,
		Email:     claims.Email,
		SessionId: claims.ID,
	}, nil
}

// LocalValidator is used by a local gateway with no admin token. Session
// JWTs resolve to their user and any other bearer token is admin.
type LocalValidator struct {
	sessions *SessionManager
}

func NewLocalValidator(sessions *SessionManager) *LocalValidator {
	return &LocalValidator{sessions: sessions}
}

func (v *LocalValidator) ValidateAdminToken(token string) bool {
	_, err := v.sessions.Validate(token)
	return err != nil
}

func (v *LocalValidator) ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error) {
	return NewSessionValidator("", v.sessions).ValidateToken(ctx, token)
}
