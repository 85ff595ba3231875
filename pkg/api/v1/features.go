package apiv1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/query"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

// FeaturesGroup serves the feature catalog. Writes need the admin token.
type FeaturesGroup struct {
	features repository.FeatureRepository
	catalog  *catalog.Catalog
}

func NewFeaturesGroup(g *echo.Group, features repository.FeatureRepository, cat *catalog.Catalog) *FeaturesGroup {
	fg := &FeaturesGroup{features: features, catalog: cat}

	g.GET("", fg.List)
	g.GET("/:id", fg.Get)

	admin := auth.RequireAdminMiddleware()
	g.PUT("/:id", fg.Save, admin)
	g.DELETE("/:id", fg.Delete, admin)
	g.POST("/import", fg.Import, admin)
	g.POST("/export", fg.Export, admin)
	return fg
}

// List returns every feature, filtered by the q search string when given.
func (fg *FeaturesGroup) List(c echo.Context) error {
	features, err := fg.features.ListFeatures(c.Request().Context())
	if err != nil {
		return ServiceErrorResponse(c, err)
	}

	if q := query.Parse(c.QueryParam("q")); !q.Empty() {
		features = q.Filter(features)
	}
	return SuccessResponse(c, features)
}

func (fg *FeaturesGroup) Get(c echo.Context) error {
	id, ok := featureID(c)
	if !ok {
		return ErrorResponse(c, http.StatusBadRequest, "invalid feature id")
	}

	f, err := fg.features.GetFeature(c.Request().Context(), id)
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, f)
}

func (fg *FeaturesGroup) Save(c echo.Context) error {
	id, ok := featureID(c)
	if !ok {
		return ErrorResponse(c, http.StatusBadRequest, "invalid feature id")
	}

	var f types.Feature
	if err := c.Bind(&f); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}
	f.Id = id
	if f.Name == "" {
		return ErrorResponse(c, http.StatusBadRequest, "name required")
	}

	if err := fg.features.SaveFeature(c.Request().Context(), &f); err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, f)
}

func (fg *FeaturesGroup) Delete(c echo.Context) error {
	id, ok := featureID(c)
	if !ok {
		return ErrorResponse(c, http.StatusBadRequest, "invalid feature id")
	}

	if err := fg.features.DeleteFeature(c.Request().Context(), id); err != nil {
		return ServiceErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type CatalogRequest struct {
	Key string `json:"key"`
}

type ImportResponse struct {
	Imported int     `json:"imported"`
	New      []int64 `json:"new"`
}

func (fg *FeaturesGroup) Import(c echo.Context) error {
	var req CatalogRequest
	if err := c.Bind(&req); err != nil || req.Key == "" {
		return ErrorResponse(c, http.StatusBadRequest, "key required")
	}

	res, err := fg.catalog.Import(c.Request().Context(), req.Key)
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, ImportResponse{Imported: res.Imported, New: res.New})
}

func (fg *FeaturesGroup) Export(c echo.Context) error {
	var req CatalogRequest
	if err := c.Bind(&req); err != nil || req.Key == "" {
		return ErrorResponse(c, http.StatusBadRequest, "key required")
	}

	n, err := fg.catalog.Export(c.Request().Context(), req.Key)
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, map[string]int{"exported": n})
}

func featureID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// VersionsGroup serves the entries of the metadata panel.
type VersionsGroup struct {
	features repository.FeatureRepository
}

func NewVersionsGroup(g *echo.Group, features repository.FeatureRepository) *VersionsGroup {
	vg := &VersionsGroup{features: features}
	g.GET("", vg.List)
	return vg
}

func (vg *VersionsGroup) List(c echo.Context) error {
	versions, err := vg.features.ListVersions(c.Request().Context())
	if err != nil {
		return ServiceErrorResponse(c, err)
	}
	return SuccessResponse(c, versions)
}

// LegendGroup serves the legend entries.
type LegendGroup struct {
	views []types.View
}

func NewLegendGroup(g *echo.Group, views []types.View) *LegendGroup {
	lg := &LegendGroup{views: views}
	g.GET("", lg.List)
	return lg
}

func (lg *LegendGroup) List(c echo.Context) error {
	return SuccessResponse(c, lg.views)
}
