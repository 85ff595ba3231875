package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/types"
)

const serviceWorkerStateTTL = 30 * 24 * time.Hour

// ServiceWorkerRedisRepository stores registrations as hashes with an index set.
type ServiceWorkerRedisRepository struct {
	rdb *common.RedisClient
}

func NewServiceWorkerRedisRepository(rdb *common.RedisClient) ServiceWorkerRepository {
	return &ServiceWorkerRedisRepository{rdb: rdb}
}

func (r *ServiceWorkerRedisRepository) AddRegistration(ctx context.Context, reg *types.ServiceWorkerRegistration) error {
	stateKey := common.Keys.ServiceWorkerState(reg.Id)

	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, common.Keys.ServiceWorkerIndex(), reg.Id)
	pipe.HSet(ctx, stateKey,
		"id", reg.Id,
		"scope", reg.Scope,
		"registered_at", reg.RegisteredAt.Unix(),
	)
	pipe.Expire(ctx, stateKey, serviceWorkerStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (r *ServiceWorkerRedisRepository) ListRegistrations(ctx context.Context) ([]*types.ServiceWorkerRegistration, error) {
	indexKey := common.Keys.ServiceWorkerIndex()
	ids, err := r.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	regs := make([]*types.ServiceWorkerRegistration, 0, len(ids))
	for _, id := range ids {
		res, err := r.rdb.HGetAll(ctx, common.Keys.ServiceWorkerState(id)).Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		if len(res) == 0 {
			r.rdb.SRem(ctx, indexKey, id) // cleanup expired
			continue
		}

		var registeredAt int64
		fmt.Sscan(res["registered_at"], &registeredAt)
		regs = append(regs, &types.ServiceWorkerRegistration{
			Id:           res["id"],
			Scope:        res["scope"],
			RegisteredAt: time.Unix(registeredAt, 0),
		})
	}

	sort.Slice(regs, func(i, j int) bool { return regs[i].RegisteredAt.Before(regs[j].RegisteredAt) })
	return regs, nil
}
