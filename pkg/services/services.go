// Package services implements the page services on top of the repositories.
// The user is taken from the request context and falls back to the email the
// service was created with.
package services

import (
	"context"

	"github.com/chromedash/chromedash/pkg/auth"
)

type user struct {
	email string
}

func (u user) resolve(ctx context.Context) string {
	if email := auth.Email(ctx); email != "" {
		return email
	}
	return u.email
}

// require returns the acting user's email or auth.ErrAuthRequired.
func (u user) require(ctx context.Context) (string, error) {
	email := u.resolve(ctx)
	if email == "" {
		return "", auth.ErrAuthRequired
	}
	return email, nil
}
