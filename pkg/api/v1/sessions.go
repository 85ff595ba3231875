package apiv1

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/auth"
)

// SessionsGroup issues session tokens. Creating one needs the admin token.
type SessionsGroup struct {
	sessions *auth.SessionManager
}

func NewSessionsGroup(g *echo.Group, sessions *auth.SessionManager) *SessionsGroup {
	sg := &SessionsGroup{sessions: sessions}
	g.POST("", sg.Create, auth.RequireAdminMiddleware())
	g.GET("/current", sg.Current, auth.RequireUserMiddleware())
	return sg
}

type CreateSessionRequest struct {
	Email string `json:"email"`
}

type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	Email     string    `json:"email"`
	SessionId string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (sg *SessionsGroup) Create(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "valid email required")
	}

	token, claims, err := sg.sessions.Create(req.Email)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	log.Info().Str("email", req.Email).Str("session_id", claims.ID).Msg("session created")
	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: SessionResponse{
			Token:     token,
			Email:     claims.Email,
			SessionId: claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		},
	})
}

func (sg *SessionsGroup) Current(c echo.Context) error {
	ctx := c.Request().Context()
	return SuccessResponse(c, SessionResponse{
		Email:     auth.Email(ctx),
		SessionId: auth.SessionId(ctx),
	})
}
