package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/types"
)

func testFeatures() []*types.Feature {
	return []*types.Feature{
		{Id: 1, Name: "CSS Subgrid", Category: "CSS", Milestone: 117, Status: "Enabled by default"},
		{Id: 2, Name: "WebGPU", Category: "Graphics", Milestone: 113, Status: "Enabled by default"},
		{Id: 3, Name: "Anchor positioning", Category: "CSS", Milestone: 125, Status: "In development"},
		{Id: 4, Name: "Proposal", Category: "Misc", Status: "Proposed"},
	}
}

func TestFeatureMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := SeedFeaturesForTest(testFeatures()...)

	features, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	ids := make([]int64, 0, len(features))
	for _, f := range features {
		ids = append(ids, f.Id)
	}
	assert.Equal(t, []int64{3, 1, 2, 4}, ids)

	f, err := repo.GetFeature(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "WebGPU", f.Name)

	_, err = repo.GetFeature(ctx, 99)
	assert.True(t, (&types.ErrFeatureNotFound{}).From(err))

	require.NoError(t, repo.DeleteFeature(ctx, 2))
	assert.Error(t, repo.DeleteFeature(ctx, 2))
}

func TestCollectVersions(t *testing.T) {
	versions := CollectVersions(testFeatures())
	assert.Equal(t, []types.Version{
		{Kind: types.VersionKindMilestone, Value: "125", Count: 1},
		{Kind: types.VersionKindMilestone, Value: "117", Count: 1},
		{Kind: types.VersionKindMilestone, Value: "113", Count: 1},
		{Kind: types.VersionKindStatus, Value: "Enabled by default", Count: 2},
		{Kind: types.VersionKindStatus, Value: "In development", Count: 1},
		{Kind: types.VersionKindStatus, Value: "Proposed", Count: 1},
	}, versions)
}

func TestStarRepositories(t *testing.T) {
	rdb, err := NewRedisClientForTest()
	require.NoError(t, err)

	repos := map[string]StarRepository{
		"memory": NewStarMemoryRepository(),
		"redis":  NewStarRedisRepository(rdb),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			stars, err := repo.GetStars(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Empty(t, stars)

			require.NoError(t, repo.SetStar(ctx, "a@example.com", 3, true))
			require.NoError(t, repo.SetStar(ctx, "a@example.com", 1, true))
			require.NoError(t, repo.SetStar(ctx, "a@example.com", 1, true))
			require.NoError(t, repo.SetStar(ctx, "b@example.com", 2, true))

			stars, err = repo.GetStars(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 3}, stars)

			require.NoError(t, repo.SetStar(ctx, "a@example.com", 3, false))
			stars, err = repo.GetStars(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, []int64{1}, stars)
		})
	}
}

func TestSubscriptionRepositories(t *testing.T) {
	rdb, err := NewRedisClientForTest()
	require.NoError(t, err)

	repos := map[string]SubscriptionRepository{
		"memory": NewSubscriptionMemoryRepository(),
		"redis":  NewSubscriptionRedisRepository(rdb),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, repo.Subscribe(ctx, "a@example.com", types.AllFeaturesTopic))
			require.NoError(t, repo.Subscribe(ctx, "a@example.com", "42"))
			require.NoError(t, repo.Subscribe(ctx, "b@example.com", types.AllFeaturesTopic))

			var invalid *types.ErrInvalidTopic
			assert.ErrorAs(t, repo.Subscribe(ctx, "a@example.com", ""), &invalid)

			topics, err := repo.ListTopics(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, []string{"42", types.AllFeaturesTopic}, topics)

			subs, err := repo.Subscribers(ctx, types.AllFeaturesTopic)
			require.NoError(t, err)
			assert.Equal(t, []string{"a@example.com", "b@example.com"}, subs)

			require.NoError(t, repo.Unsubscribe(ctx, "a@example.com", types.AllFeaturesTopic))
			topics, err = repo.ListTopics(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, []string{"42"}, topics)

			subs, err = repo.Subscribers(ctx, types.AllFeaturesTopic)
			require.NoError(t, err)
			assert.Equal(t, []string{"b@example.com"}, subs)
		})
	}
}

func TestServiceWorkerRepositories(t *testing.T) {
	rdb, err := NewRedisClientForTest()
	require.NoError(t, err)

	repos := map[string]ServiceWorkerRepository{
		"memory": NewServiceWorkerMemoryRepository(),
		"redis":  NewServiceWorkerRedisRepository(rdb),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Unix(1700000000, 0)

			require.NoError(t, repo.AddRegistration(ctx, &types.ServiceWorkerRegistration{Id: "sw-1", Scope: "/", RegisteredAt: now}))
			require.NoError(t, repo.AddRegistration(ctx, &types.ServiceWorkerRegistration{Id: "sw-2", Scope: "/features", RegisteredAt: now.Add(time.Minute)}))

			regs, err := repo.ListRegistrations(ctx)
			require.NoError(t, err)
			require.Len(t, regs, 2)
			assert.Equal(t, "sw-1", regs[0].Id)
			assert.Equal(t, "/features", regs[1].Scope)
			assert.True(t, now.Equal(regs[0].RegisteredAt))
		})
	}
}

// countingRepository counts backend reads.
type countingRepository struct {
	*FeatureMemoryRepository
	lists int
	gets  int
}

func (c *countingRepository) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	c.lists++
	return c.FeatureMemoryRepository.ListFeatures(ctx)
}

func (c *countingRepository) GetFeature(ctx context.Context, id int64) (*types.Feature, error) {
	c.gets++
	return c.FeatureMemoryRepository.GetFeature(ctx, id)
}

func TestFeatureCacheRepository(t *testing.T) {
	ctx := context.Background()
	backend := &countingRepository{FeatureMemoryRepository: SeedFeaturesForTest(testFeatures()...)}
	bus := common.NewEventBus(ctx, nil)
	clk := testingclock.NewFakeClock(time.Unix(0, 0))

	repo, err := NewFeatureCacheRepository(backend, bus, 16, 250*time.Millisecond, common.WithClock(clk))
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.ListFeatures(ctx)
	require.NoError(t, err)
	_, err = repo.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.lists)

	f, err := repo.GetFeature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "CSS Subgrid", f.Name)
	assert.Equal(t, 0, backend.gets)

	// write-through invalidates right away
	require.NoError(t, repo.SaveFeature(ctx, &types.Feature{Id: 1, Name: "Subgrid", Milestone: 117}))
	f, err = repo.GetFeature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Subgrid", f.Name)
	assert.Equal(t, 1, backend.gets)

	// a remote update is only applied after the lag
	require.NoError(t, backend.FeatureMemoryRepository.SaveFeature(ctx, &types.Feature{Id: 2, Name: "WebGPU v2"}))
	bus.Emit(common.FeatureUpdated(2))
	bus.Emit(common.FeatureUpdated(2))

	f, err = repo.GetFeature(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "WebGPU", f.Name)

	clk.Step(250 * time.Millisecond)
	assert.Eventually(t, func() bool {
		f, err := repo.GetFeature(ctx, 2)
		return err == nil && f.Name == "WebGPU v2"
	}, time.Second, time.Millisecond)
}

// gatedRepository holds ListFeatures after the backend read until gate closes.
type gatedRepository struct {
	*FeatureMemoryRepository
	read chan struct{}
	gate chan struct{}
}

func (g *gatedRepository) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	list, err := g.FeatureMemoryRepository.ListFeatures(ctx)
	g.read <- struct{}{}
	<-g.gate
	return list, err
}

func TestFeatureCacheDropsReadsRacingAWrite(t *testing.T) {
	ctx := context.Background()
	backend := &gatedRepository{
		FeatureMemoryRepository: SeedFeaturesForTest(&types.Feature{Id: 1, Name: "old"}),
		read:                    make(chan struct{}, 4),
		gate:                    make(chan struct{}),
	}

	repo, err := NewFeatureCacheRepository(backend, nil, 16, 0)
	require.NoError(t, err)
	defer repo.Close()

	done := make(chan []*types.Feature)
	go func() {
		list, _ := repo.ListFeatures(ctx)
		done <- list
	}()

	<-backend.read
	require.NoError(t, repo.SaveFeature(ctx, &types.Feature{Id: 1, Name: "new"}))
	close(backend.gate)

	// The racing read still answers its own caller
	stale := <-done
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].Name)

	list, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Name)

	f, err := repo.GetFeature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", f.Name)

	versions, err := repo.ListVersions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, versions)
}
