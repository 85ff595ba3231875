package common

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// SeenTracker remembers a set of feature ids under a redis key and reports
// which ids of a new snapshot were not in the previous one.
type SeenTracker struct {
	rdb *RedisClient
}

func NewSeenTracker(rdb *RedisClient) *SeenTracker {
	return &SeenTracker{rdb: rdb}
}

// Diff returns ids in current that weren't in the set stored at key, then
// replaces the stored set with current. The first call only populates the set
// and returns nil so a fresh catalog does not count as all-new.
func (t *SeenTracker) Diff(ctx context.Context, key string, current []int64) ([]int64, error) {
	if len(current) == 0 {
		return nil, nil
	}

	members := make([]any, len(current))
	for i, id := range current {
		members[i] = strconv.FormatInt(id, 10)
	}

	pipe := t.rdb.TxPipeline()
	oldCmd := pipe.SMembers(ctx, key)
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	old := oldCmd.Val()
	if len(old) == 0 {
		return nil, nil
	}

	oldSet := make(map[string]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}

	var fresh []int64
	for i, id := range current {
		if _, seen := oldSet[members[i].(string)]; !seen {
			fresh = append(fresh, id)
		}
	}
	return fresh, nil
}
