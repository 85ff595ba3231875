package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/types"
)

// SubscriptionRedisRepository indexes subscriptions both ways: topics per
// user and users per topic.
type SubscriptionRedisRepository struct {
	rdb *common.RedisClient
}

func NewSubscriptionRedisRepository(rdb *common.RedisClient) SubscriptionRepository {
	return &SubscriptionRedisRepository{rdb: rdb}
}

func (r *SubscriptionRedisRepository) ListTopics(ctx context.Context, email string) ([]string, error) {
	topics, err := r.rdb.SMembers(ctx, common.Keys.NotificationUserTopics(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	sort.Strings(topics)
	return topics, nil
}

func (r *SubscriptionRedisRepository) Subscribe(ctx context.Context, email, topic string) error {
	if topic == "" {
		return &types.ErrInvalidTopic{Topic: topic}
	}

	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, common.Keys.NotificationUserTopics(email), topic)
	pipe.SAdd(ctx, common.Keys.NotificationSubscribers(topic), email)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (r *SubscriptionRedisRepository) Unsubscribe(ctx context.Context, email, topic string) error {
	pipe := r.rdb.TxPipeline()
	pipe.SRem(ctx, common.Keys.NotificationUserTopics(email), topic)
	pipe.SRem(ctx, common.Keys.NotificationSubscribers(topic), email)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (r *SubscriptionRedisRepository) Subscribers(ctx context.Context, topic string) ([]string, error) {
	emails, err := r.rdb.SMembers(ctx, common.Keys.NotificationSubscribers(topic)).Result()
	if err != nil {
		return nil, fmt.Errorf("subscribers: %w", err)
	}
	sort.Strings(emails)
	return emails, nil
}
