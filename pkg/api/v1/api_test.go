package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/services"
	"github.com/chromedash/chromedash/pkg/types"
)

const adminToken = "admin-token"

type testServer struct {
	e        *echo.Echo
	sessions *auth.SessionManager
	features *repository.FeatureMemoryRepository
	dir      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	rdb, err := repository.NewRedisClientForTest()
	require.NoError(t, err)

	features := repository.SeedFeaturesForTest(
		&types.Feature{Id: 1, Name: "WebGPU", Category: "Graphics", Milestone: 113, Status: "Enabled by default"},
		&types.Feature{Id: 2, Name: "Popover", Category: "DOM", Milestone: 114, Status: "Enabled by default"},
		&types.Feature{Id: 3, Name: "View Transitions", Category: "CSS", Milestone: 111, Status: "In development"},
	)
	stars := repository.NewStarRedisRepository(rdb)
	subs := repository.NewSubscriptionRedisRepository(rdb)
	sw := repository.NewServiceWorkerRedisRepository(rdb)
	dir := t.TempDir()

	sessions := auth.NewSessionManager("secret", time.Hour)
	views, err := catalog.Views()
	require.NoError(t, err)

	e := echo.New()
	e.Use(auth.HTTPMiddleware(auth.NewSessionValidator(adminToken, sessions)))
	base := e.Group(HttpServerBaseRoute)

	NewHealthGroup(base.Group("/health"), rdb)
	NewFeaturesGroup(base.Group("/features"), features, catalog.NewCatalog(catalog.NewFileStore(dir), features, rdb))
	NewVersionsGroup(base.Group("/versions"), features)
	NewLegendGroup(base.Group("/legend"), views)
	NewSessionsGroup(base.Group("/sessions"), sessions)
	NewStarsGroup(base.Group("/stars"), services.NewStarService(stars, features, ""))
	NewSubscriptionsGroup(base.Group("/subscriptions"), services.NewNotificationService(subs, features, types.NotificationsConfig{Enabled: true}, "", types.PermissionGranted))
	NewServiceWorkerGroup(base.Group("/service-worker"), services.NewServiceWorkerService(sw, ""), sw)

	return &testServer{e: e, sessions: sessions, features: features, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, HttpServerBaseRoute+path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, HttpServerBaseRoute+path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp Response
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func (s *testServer) userToken(t *testing.T, email string) string {
	t.Helper()
	token, _, err := s.sessions.Create(email)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, data any) T {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListFeatures(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/features", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Len(t, decode[[]types.Feature](t, resp.Data), 3)

	rec, resp = s.do(t, http.MethodGet, "/features?q=milestone%3D114", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	features := decode[[]types.Feature](t, resp.Data)
	require.Len(t, features, 1)
	assert.Equal(t, "Popover", features[0].Name)
}

func TestGetFeature(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/features/3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "View Transitions", decode[types.Feature](t, resp.Data).Name)

	rec, resp = s.do(t, http.MethodGet, "/features/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = s.do(t, http.MethodGet, "/features/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveFeatureNeedsAdmin(t *testing.T) {
	s := newTestServer(t)
	body := `{"name": "CSS Nesting", "category": "CSS", "milestone": 112}`

	rec, _ := s.do(t, http.MethodPut, "/features/4", "", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/features/4", adminToken, body)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := s.features.GetFeature(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "CSS Nesting", f.Name)

	rec, _ = s.do(t, http.MethodDelete, "/features/4", adminToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/features/4", adminToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportFeatures(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "seed.yaml"), []byte("features:\n  - id: 9\n    name: Anchor positioning\n"), 0644))

	rec, resp := s.do(t, http.MethodPost, "/features/import", adminToken, `{"key": "seed.yaml"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ImportResponse](t, resp.Data).Imported)

	rec, _ = s.do(t, http.MethodPost, "/features/import", adminToken, `{"key": "missing.yaml"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/features/export", adminToken, `{"key": "out.json"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.FileExists(t, filepath.Join(s.dir, "out.json"))
}

func TestVersionsAndLegend(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/versions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	versions := decode[[]types.Version](t, resp.Data)
	require.NotEmpty(t, versions)
	assert.Equal(t, "114", versions[0].Value)

	rec, resp = s.do(t, http.MethodGet, "/legend", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]types.View](t, resp.Data))
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/sessions", "", `{"email": "dev@chromium.org"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/sessions", adminToken, `{"email": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := s.do(t, http.MethodPost, "/sessions", adminToken, `{"email": "dev@chromium.org"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[SessionResponse](t, resp.Data)
	require.NotEmpty(t, session.Token)

	rec, resp = s.do(t, http.MethodGet, "/sessions/current", session.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev@chromium.org", decode[SessionResponse](t, resp.Data).Email)
}

func TestStars(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "dev@chromium.org")

	rec, _ := s.do(t, http.MethodPut, "/stars/2", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/stars/2", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodPut, "/stars/3", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodPut, "/stars/99", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, resp := s.do(t, http.MethodGet, "/stars", token, "")
	assert.Equal(t, []int64{2, 3}, decode[[]int64](t, resp.Data))

	rec, _ = s.do(t, http.MethodDelete, "/stars/2", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, resp = s.do(t, http.MethodGet, "/stars", token, "")
	assert.Equal(t, []int64{3}, decode[[]int64](t, resp.Data))

	// Other users and anonymous callers see their own stars.
	_, resp = s.do(t, http.MethodGet, "/stars", s.userToken(t, "other@chromium.org"), "")
	assert.Empty(t, decode[[]int64](t, resp.Data))
	_, resp = s.do(t, http.MethodGet, "/stars", "", "")
	assert.Empty(t, decode[[]int64](t, resp.Data))
}

func TestSubscriptions(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "dev@chromium.org")

	rec, _ := s.do(t, http.MethodGet, "/subscriptions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/subscriptions/"+types.AllFeaturesTopic, token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodPut, "/subscriptions/1", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodPut, "/subscriptions/bogus", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, resp := s.do(t, http.MethodGet, "/subscriptions", token, "")
	assert.ElementsMatch(t, []string{"1", types.AllFeaturesTopic}, decode[[]string](t, resp.Data))

	rec, _ = s.do(t, http.MethodDelete, "/subscriptions/"+types.AllFeaturesTopic, token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, resp = s.do(t, http.MethodGet, "/subscriptions", token, "")
	assert.Equal(t, []string{"1"}, decode[[]string](t, resp.Data))
}

func TestServiceWorker(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/service-worker", "", `{"scope": "/features"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decode[types.ServiceWorkerRegistration](t, resp.Data)
	assert.Equal(t, "/features", reg.Scope)

	rec, _ = s.do(t, http.MethodPost, "/service-worker", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/service-worker", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/service-worker", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.ServiceWorkerRegistration](t, resp.Data), 2)
}
