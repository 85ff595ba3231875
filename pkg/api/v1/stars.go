package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chromedash/chromedash/pkg/services"
)

// StarsGroup manages the signed-in user's starred features.
type StarsGroup struct {
	stars *services.StarService
}

func NewStarsGroup(g *echo.Group, stars *services.StarService) *StarsGroup {
	sg := &StarsGroup{stars: stars}
	g.GET("", sg.List)
	g.PUT("/:id", sg.Star)
	g.DELETE("/:id", sg.Unstar)
	return sg
}

func (sg *StarsGroup) List(c echo.Context) error {
	ids, err := sg.stars.GetStars(c.Request().Context())
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, ids)
}

func (sg *StarsGroup) Star(c echo.Context) error {
	return sg.set(c, true)
}

func (sg *StarsGroup) Unstar(c echo.Context) error {
	return sg.set(c, false)
}

func (sg *StarsGroup) set(c echo.Context, starred bool) error {
	id, ok := featureID(c)
	if !ok {
		return ErrorResponse(c, http.StatusBadRequest, "invalid feature id")
	}

	if err := sg.stars.SetStar(c.Request().Context(), id, starred); err != nil {
		return ServiceErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
