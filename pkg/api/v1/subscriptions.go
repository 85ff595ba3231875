package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/services"
)

// SubscriptionsGroup manages the signed-in user's notification topics.
type SubscriptionsGroup struct {
	notifications *services.NotificationService
}

func NewSubscriptionsGroup(g *echo.Group, notifications *services.NotificationService) *SubscriptionsGroup {
	sg := &SubscriptionsGroup{notifications: notifications}
	g.GET("", sg.List)
	g.PUT("/:topic", sg.Subscribe)
	g.DELETE("/:topic", sg.Unsubscribe)
	g.GET("/:topic/subscribers", sg.Subscribers, auth.RequireAdminMiddleware())
	return sg
}

func (sg *SubscriptionsGroup) List(c echo.Context) error {
	topics, err := sg.notifications.GetAllSubscribedFeatures(c.Request().Context())
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, topics)
}

func (sg *SubscriptionsGroup) Subscribe(c echo.Context) error {
	if err := sg.notifications.Subscribe(c.Request().Context(), c.Param("topic")); err != nil {
		return ServiceErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (sg *SubscriptionsGroup) Unsubscribe(c echo.Context) error {
	if err := sg.notifications.Unsubscribe(c.Request().Context(), c.Param("topic")); err != nil {
		return ServiceErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (sg *SubscriptionsGroup) Subscribers(c echo.Context) error {
	emails, err := sg.notifications.Subscribers(c.Request().Context(), c.Param("topic"))
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, emails)
}
