package repository

import (
	"context"

	"github.com/alicebob/miniredis/v2"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/types"
)

// NewRedisClientForTest creates a Redis client backed by miniredis for testing
func NewRedisClientForTest() (*common.RedisClient, error) {
	s, err := miniredis.Run()
	if err != nil {
		return nil, err
	}

	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

// SeedFeaturesForTest returns a memory repository holding features
func SeedFeaturesForTest(features ...*types.Feature) *FeatureMemoryRepository {
	repo := NewFeatureMemoryRepository()
	for _, f := range features {
		repo.SaveFeature(context.Background(), f)
	}
	return repo
}
