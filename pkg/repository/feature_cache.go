package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/types"
)

const defaultFeatureCacheSize = 1024

// FeatureCacheRepository caches a FeatureRepository in memory. Writes go
// through and invalidate locally right away; writes made by other replicas
// arrive over the event bus and are invalidated after a short lag so a burst
// of updates to one feature costs a single eviction.
type FeatureCacheRepository struct {
	backend FeatureRepository
	bus     *common.EventBus
	cache   *lru.Cache[int64, *types.Feature]
	lag     *common.KeyedDebouncer

	mu       sync.RWMutex
	list     []*types.Feature
	versions []types.Version
	gen      uint64 // bumped on every invalidation, reads filled under an older gen are dropped
}

func NewFeatureCacheRepository(backend FeatureRepository, bus *common.EventBus, size int, lag time.Duration, opts ...common.DebounceOption) (*FeatureCacheRepository, error) {
	if size <= 0 {
		size = defaultFeatureCacheSize
	}
	cache, err := lru.New[int64, *types.Feature](size)
	if err != nil {
		return nil, err
	}

	r := &FeatureCacheRepository{
		backend: backend,
		bus:     bus,
		cache:   cache,
		lag:     common.NewKeyedDebouncer(lag, opts...),
	}

	if bus != nil {
		bus.On(common.EventFeatureUpdated, r.onFeatureUpdated)
		bus.On(common.EventCatalogReloaded, func(common.Event) { r.Purge() })
	}
	return r, nil
}

func (r *FeatureCacheRepository) onFeatureUpdated(e common.Event) {
	id, ok := e.FeatureID()
	if !ok {
		return
	}
	r.lag.Call(strconv.FormatInt(id, 10), func() {
		r.Invalidate(id)
	})
}

// Invalidate drops one feature and the cached listings.
func (r *FeatureCacheRepository) Invalidate(id int64) {
	r.mu.Lock()
	r.gen++
	r.cache.Remove(id)
	r.list = nil
	r.versions = nil
	r.mu.Unlock()

	log.Debug().Int64("feature_id", id).Msg("feature cache invalidated")
}

// Purge drops everything.
func (r *FeatureCacheRepository) Purge() {
	r.mu.Lock()
	r.gen++
	r.cache.Purge()
	r.list = nil
	r.versions = nil
	r.mu.Unlock()
}

func (r *FeatureCacheRepository) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	r.mu.RLock()
	list, gen := r.list, r.gen
	r.mu.RUnlock()
	if list != nil {
		return list, nil
	}

	list, err := r.backend.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*types.Feature{}
	}

	r.mu.Lock()
	if r.gen == gen {
		r.list = list
		for _, f := range list {
			r.cache.Add(f.Id, f)
		}
	}
	r.mu.Unlock()
	return list, nil
}

func (r *FeatureCacheRepository) GetFeature(ctx context.Context, id int64) (*types.Feature, error) {
	if f, ok := r.cache.Get(id); ok {
		return f, nil
	}

	r.mu.RLock()
	gen := r.gen
	r.mu.RUnlock()

	f, err := r.backend.GetFeature(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.gen == gen {
		r.cache.Add(id, f)
	}
	r.mu.Unlock()
	return f, nil
}

func (r *FeatureCacheRepository) SaveFeature(ctx context.Context, feature *types.Feature) error {
	if err := r.backend.SaveFeature(ctx, feature); err != nil {
		return err
	}
	r.Invalidate(feature.Id)
	r.emit(feature.Id)
	return nil
}

func (r *FeatureCacheRepository) DeleteFeature(ctx context.Context, id int64) error {
	if err := r.backend.DeleteFeature(ctx, id); err != nil {
		return err
	}
	r.Invalidate(id)
	r.emit(id)
	return nil
}

func (r *FeatureCacheRepository) ListVersions(ctx context.Context) ([]types.Version, error) {
	r.mu.RLock()
	versions, gen := r.versions, r.gen
	r.mu.RUnlock()
	if versions != nil {
		return versions, nil
	}

	versions, err := r.backend.ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []types.Version{}
	}

	r.mu.Lock()
	if r.gen == gen {
		r.versions = versions
	}
	r.mu.Unlock()
	return versions, nil
}

// Close drops pending remote invalidations.
func (r *FeatureCacheRepository) Close() {
	r.lag.Stop()
}

func (r *FeatureCacheRepository) emit(id int64) {
	if r.bus != nil {
		r.bus.Emit(common.FeatureUpdated(id))
	}
}
