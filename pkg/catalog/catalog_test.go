package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

const jsonCatalog = `{
  "features": [
    {"id": 1, "name": "WebGPU", "category": "Graphics", "owners": ["a@chromium.org"], "milestone": 113, "status": "Enabled by default"},
    {"id": 2, "name": "Popover", "category": "DOM", "milestone": 114, "status": "Enabled by default"}
  ]
}`

const yamlCatalog = `features:
  - id: 3
    name: View Transitions
    category: CSS
    component: Blink>CSS
    owners: [a@chromium.org, b@chromium.org]
    milestone: 111
    status: In development
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("seed/features.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("features.YML"))
	assert.Equal(t, FormatJSON, FormatFor("features.json"))
	assert.Equal(t, FormatJSON, FormatFor("features"))
}

func TestDecodeValidation(t *testing.T) {
	_, err := Decode([]byte(`{"features":[{"id":0,"name":"x"}]}`), FormatJSON)
	assert.ErrorContains(t, err, "id must be positive")

	_, err = Decode([]byte(`{"features":[{"id":4}]}`), FormatJSON)
	assert.ErrorContains(t, err, "name required")

	_, err = Decode([]byte(`{"features":[{"id":4,"name":"a"},{"id":4,"name":"b"}]}`), FormatJSON)
	assert.ErrorContains(t, err, "duplicate id")

	_, err = Decode([]byte(`{`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode([]byte(`{}`), "toml")
	assert.ErrorContains(t, err, "unsupported")
}

func TestImportLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "features.json", jsonCatalog)
	writeFile(t, dir, "more.yaml", yamlCatalog)

	ctx := context.Background()
	repo := repository.NewFeatureMemoryRepository()
	c := NewCatalog(NewFileStore(dir), repo, nil)

	res, err := c.Import(ctx, "features.json")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.New)

	res, err = c.Import(ctx, "more.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	features, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, features, 3)

	f, err := repo.GetFeature(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@chromium.org", "b@chromium.org"}, f.Owners)
	assert.False(t, f.Updated.IsZero())
}

func TestImportTracksNewFeatures(t *testing.T) {
	rdb, err := repository.NewRedisClientForTest()
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "features.json", jsonCatalog)

	ctx := context.Background()
	repo := repository.NewFeatureMemoryRepository()
	c := NewCatalog(NewFileStore(dir), repo, rdb)

	res, err := c.Import(ctx, "features.json")
	require.NoError(t, err)
	assert.Empty(t, res.New)

	writeFile(t, dir, "features.json", `{"features":[
		{"id": 1, "name": "WebGPU"},
		{"id": 2, "name": "Popover"},
		{"id": 7, "name": "Scroll-driven animations"}
	]}`)

	// The seed lock was released, so a second import goes through.
	res, err = c.Import(ctx, "features.json")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, res.New)
}

func TestImportIfExists(t *testing.T) {
	c := NewCatalog(NewFileStore(t.TempDir()), repository.NewFeatureMemoryRepository(), nil)

	_, err := c.Import(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	res, err := c.ImportIfExists(context.Background(), "missing.json")
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "features.json", jsonCatalog)

	ctx := context.Background()
	src := repository.NewFeatureMemoryRepository()
	c := NewCatalog(NewFileStore(dir), src, nil)
	_, err := c.Import(ctx, "features.json")
	require.NoError(t, err)

	n, err := c.Export(ctx, "out/features.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	exists, err := NewFileStore(dir).Exists(ctx, "out/features.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	dst := repository.NewFeatureMemoryRepository()
	res, err := NewCatalog(NewFileStore(dir), dst, nil).Import(ctx, "out/features.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	f, err := dst.GetFeature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "WebGPU", f.Name)
	assert.Equal(t, 113, f.Milestone)
}

func TestNewObjectStoreWithoutBucket(t *testing.T) {
	store, err := NewObjectStore(types.S3Config{})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
}

func TestViews(t *testing.T) {
	views, err := Views()
	require.NoError(t, err)
	require.NotEmpty(t, views)
	assert.Equal(t, "No active development", views[0].Title)
	for _, v := range views {
		assert.NotEmpty(t, v.Description, v.Title)
	}
}
