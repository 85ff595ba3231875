package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/chromedash/chromedash/pkg/api/v1"
	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/page"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/services"
	"github.com/chromedash/chromedash/pkg/types"
	"github.com/chromedash/chromedash/pkg/widgets"
)

const adminToken = "admin-token"

// Compile-time checks that the client plugs into a page.
var (
	_ widgets.FeatureSource  = (*Client)(nil)
	_ widgets.VersionSource  = (*Client)(nil)
	_ page.StarService       = (*Client)(nil)
	_ page.PushNotifications = (*PushNotifications)(nil)
	_ page.ServiceWorker     = (*ServiceWorker)(nil)
)

type testGateway struct {
	url      string
	sessions *auth.SessionManager
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	rdb, err := repository.NewRedisClientForTest()
	require.NoError(t, err)

	features := repository.SeedFeaturesForTest(
		&types.Feature{Id: 1, Name: "WebGPU", Category: "Graphics", Milestone: 113, Status: "Enabled by default"},
		&types.Feature{Id: 2, Name: "Popover", Category: "DOM", Milestone: 114, Status: "Enabled by default"},
	)
	sw := repository.NewServiceWorkerRedisRepository(rdb)
	sessions := auth.NewSessionManager("secret", time.Hour)
	views, err := catalog.Views()
	require.NoError(t, err)

	e := echo.New()
	e.Use(auth.HTTPMiddleware(auth.NewSessionValidator(adminToken, sessions)))
	base := e.Group(apiv1.HttpServerBaseRoute)
	apiv1.NewHealthGroup(base.Group("/health"), rdb)
	apiv1.NewFeaturesGroup(base.Group("/features"), features, catalog.NewCatalog(catalog.NewFileStore(t.TempDir()), features, rdb))
	apiv1.NewVersionsGroup(base.Group("/versions"), features)
	apiv1.NewLegendGroup(base.Group("/legend"), views)
	apiv1.NewSessionsGroup(base.Group("/sessions"), sessions)
	apiv1.NewStarsGroup(base.Group("/stars"), services.NewStarService(repository.NewStarRedisRepository(rdb), features, ""))
	apiv1.NewSubscriptionsGroup(base.Group("/subscriptions"), services.NewNotificationService(repository.NewSubscriptionRedisRepository(rdb), features, types.NotificationsConfig{Enabled: true}, "", types.PermissionGranted))
	apiv1.NewServiceWorkerGroup(base.Group("/service-worker"), services.NewServiceWorkerService(sw, ""), sw)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testGateway{url: srv.URL, sessions: sessions}
}

func (g *testGateway) client(t *testing.T, token string) *Client {
	t.Helper()
	c, err := NewClient(g.url, token)
	require.NoError(t, err)
	return c
}

func (g *testGateway) userClient(t *testing.T, email string) *Client {
	t.Helper()
	token, _, err := g.sessions.Create(email)
	require.NoError(t, err)
	return g.client(t, token)
}

func TestBaseURL(t *testing.T) {
	u, err := BaseURL("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", u)

	u, err = BaseURL("dash.example.com:443")
	require.NoError(t, err)
	assert.Equal(t, "https://dash.example.com:443/api/v1", u)

	u, err = BaseURL("https://dash.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://dash.example.com/api/v1", u)

	u, err = BaseURL("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayURL+"/api/v1", u)
}

func TestFeaturesAndVersions(t *testing.T) {
	g := newTestGateway(t)
	c := g.client(t, "")
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	features, err := c.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Len(t, features, 2)

	features, err = c.SearchFeatures(ctx, "category:DOM")
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "Popover", features[0].Name)

	f, err := c.GetFeature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "WebGPU", f.Name)

	_, err = c.GetFeature(ctx, 99)
	var notFound *types.ErrFeatureNotFound
	assert.ErrorAs(t, err, &notFound)

	versions, err := c.ListVersions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, versions)

	views, err := c.Legend(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, views)
}

func TestCatalogNeedsAdmin(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.client(t, "").ExportCatalog(ctx, "out.json")
	assert.True(t, IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden), err)

	n, err := g.client(t, adminToken).ExportCatalog(ctx, "out.json")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := g.client(t, adminToken).ImportCatalog(ctx, "out.json")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
}

func TestSessions(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	res, err := g.client(t, adminToken).CreateSession(ctx, "dev@chromium.org")
	require.NoError(t, err)
	assert.Equal(t, "dev@chromium.org", res.Email)
	require.NotEmpty(t, res.Token)

	current, err := g.client(t, res.Token).CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev@chromium.org", current.Email)
	assert.Equal(t, res.SessionId, current.SessionId)
}

func TestStars(t *testing.T) {
	g := newTestGateway(t)
	c := g.userClient(t, "dev@chromium.org")
	ctx := context.Background()

	require.NoError(t, c.SetStar(ctx, 2, true))
	ids, err := c.GetStars(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	require.NoError(t, c.SetStar(ctx, 2, false))
	ids, err = c.GetStars(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = g.client(t, "").SetStar(ctx, 1, true)
	assert.True(t, IsStatus(err, http.StatusUnauthorized), err)
}

func TestPushNotifications(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	anon := NewPushNotifications(g.client(t, ""), "bogus")
	assert.False(t, anon.Supported())
	assert.Equal(t, types.PermissionDefault, anon.Permission())

	push := NewPushNotifications(g.userClient(t, "dev@chromium.org"), types.PermissionDefault)
	assert.True(t, push.Supported())
	require.NoError(t, push.Init(ctx))

	require.NoError(t, push.SubscribeToFeature(ctx))
	assert.Equal(t, types.PermissionGranted, push.Permission())

	topics, err := push.GetAllSubscribedFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{types.AllFeaturesTopic}, topics)

	require.NoError(t, push.UnsubscribeFromFeature(ctx))
	topics, err = push.GetAllSubscribedFeatures(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestServiceWorker(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	reg, err := g.client(t, "").RegisterServiceWorker(ctx, "/features")
	require.NoError(t, err)
	assert.Equal(t, "/features", reg.Scope)
	assert.NotEmpty(t, reg.Id)

	require.NoError(t, NewServiceWorker(g.client(t, ""), "").Register(ctx))
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "feature not found: 9"}
	assert.Equal(t, "gateway returned 404: feature not found: 9", err.Error())
	assert.True(t, IsStatus(err, 404))
	assert.False(t, IsStatus(err, 500))
	assert.Equal(t, "gateway returned 502", (&APIError{StatusCode: 502}).Error())
}
