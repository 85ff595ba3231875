package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/chromedash/chromedash/pkg/common"
)

// StarRedisRepository keeps one redis set of feature ids per user.
type StarRedisRepository struct {
	rdb *common.RedisClient
}

func NewStarRedisRepository(rdb *common.RedisClient) StarRepository {
	return &StarRedisRepository{rdb: rdb}
}

func (r *StarRedisRepository) GetStars(ctx context.Context, email string) ([]int64, error) {
	members, err := r.rdb.SMembers(ctx, common.Keys.StarSet(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("stars: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue // not ours
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *StarRedisRepository) SetStar(ctx context.Context, email string, featureId int64, starred bool) error {
	key := common.Keys.StarSet(email)
	member := strconv.FormatInt(featureId, 10)

	if starred {
		return r.rdb.SAdd(ctx, key, member).Err()
	}
	return r.rdb.SRem(ctx, key, member).Err()
}
