package auth

import (
	"context"
	"errors"

	"github.com/chromedash/chromedash/pkg/types"
)

type ctxKey int

const authInfoKey ctxKey = iota

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrAdminRequired = errors.New("admin access required")
)

// --- Context get/set ---

func WithAuthInfo(ctx context.Context, info *types.AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

func AuthInfoFromContext(ctx context.Context) *types.AuthInfo {
	info, _ := ctx.Value(authInfoKey).(*types.AuthInfo)
	return info
}

// WithEmail marks ctx as belonging to a signed-in user.
func WithEmail(ctx context.Context, email string) context.Context {
	return WithAuthInfo(ctx, &types.AuthInfo{TokenType: types.TokenTypeSession, Email: email})
}

// --- Authorization checks ---

func RequireAuth(ctx context.Context) error {
	if AuthInfoFromContext(ctx) == nil {
		return ErrAuthRequired
	}
	return nil
}

func RequireAdmin(ctx context.Context) error {
	if i := AuthInfoFromContext(ctx); !i.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// RequireUser returns the signed-in user's email.
func RequireUser(ctx context.Context) (string, error) {
	i := AuthInfoFromContext(ctx)
	if !i.IsUser() {
		return "", ErrAuthRequired
	}
	return i.Email, nil
}

// --- Boolean checks ---

func IsAuthenticated(ctx context.Context) bool { return AuthInfoFromContext(ctx) != nil }
func IsAdmin(ctx context.Context) bool         { return AuthInfoFromContext(ctx).IsAdmin() }
func IsUser(ctx context.Context) bool          { return AuthInfoFromContext(ctx).IsUser() }

// --- Field accessors ---

func Email(ctx context.Context) string {
	if i := AuthInfoFromContext(ctx); i != nil {
		return i.Email
	}
	return ""
}

func SessionId(ctx context.Context) string {
	if i := AuthInfoFromContext(ctx); i != nil {
		return i.SessionId
	}
	return ""
}
