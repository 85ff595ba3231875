package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/services"
)

// ServiceWorkerGroup records service worker registrations. Anyone may register.
type ServiceWorkerGroup struct {
	sw   *services.ServiceWorkerService
	repo repository.ServiceWorkerRepository
}

func NewServiceWorkerGroup(g *echo.Group, sw *services.ServiceWorkerService, repo repository.ServiceWorkerRepository) *ServiceWorkerGroup {
	sg := &ServiceWorkerGroup{sw: sw, repo: repo}
	g.POST("", sg.Register)
	g.GET("", sg.List, auth.RequireAdminMiddleware())
	return sg
}

type RegisterServiceWorkerRequest struct {
	Scope string `json:"scope"`
}

func (sg *ServiceWorkerGroup) Register(c echo.Context) error {
	var req RegisterServiceWorkerRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "invalid request")
		}
	}

	reg, err := sg.sw.RegisterScope(c.Request().Context(), req.Scope)
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, Response{Success: true, Data: reg})
}

func (sg *ServiceWorkerGroup) List(c echo.Context) error {
	regs, err := sg.repo.ListRegistrations(c.Request().Context())
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, regs)
}
