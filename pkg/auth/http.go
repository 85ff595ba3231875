package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/types"
)

// HTTPMiddleware validates auth tokens and adds AuthInfo to context.
// Allows requests to proceed without auth; routes must explicitly require auth.
func HTTPMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()

			if validator.ValidateAdminToken(token) {
				ctx = WithAuthInfo(ctx, &types.AuthInfo{TokenType: types.TokenTypeAdmin})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}

			info, err := validator.ValidateToken(ctx, token)
			if err != nil {
				log.Debug().Err(err).Msg("auth: invalid token")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			if info != nil {
				ctx = WithAuthInfo(ctx, info)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			return next(c)
		}
	}
}

// Handler wrappers

func WithAuth(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := RequireAuth(c.Request().Context()); err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		return h(c)
	}
}

func WithUser(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := RequireUser(c.Request().Context()); err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		return h(c)
	}
}

func WithAdmin(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := RequireAdmin(c.Request().Context()); err != nil {
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		}
		return h(c)
	}
}

// Middleware factories

func RequireAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return WithAdmin(next) }
}

func RequireUserMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return WithUser(next) }
}
