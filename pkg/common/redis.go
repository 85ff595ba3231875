package common

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chromedash/chromedash/pkg/types"
)

// RedisClient wraps a universal client so single and cluster deployments
// share one type.
type RedisClient struct {
	redis.UniversalClient
}

// WithClientName sets the name reported by CLIENT LIST.
func WithClientName(name string) func(*redis.UniversalOptions) {
	return func(opts *redis.UniversalOptions) {
		opts.ClientName = name
	}
}

func NewRedisClient(config types.RedisConfig, options ...func(*redis.UniversalOptions)) (*RedisClient, error) {
	if len(config.Addrs) == 0 {
		return nil, errors.New("redis: no addresses configured")
	}

	opts := &redis.UniversalOptions{
		Addrs:           config.Addrs,
		Username:        config.Username,
		Password:        config.Password,
		ClientName:      config.ClientName,
		PoolSize:        config.PoolSize,
		MinIdleConns:    config.MinIdleConns,
		MaxIdleConns:    config.MaxIdleConns,
		ConnMaxIdleTime: config.ConnMaxIdleTime,
		ConnMaxLifetime: config.ConnMaxLifetime,
		DialTimeout:     config.DialTimeout,
		ReadTimeout:     config.ReadTimeout,
		WriteTimeout:    config.WriteTimeout,
		MaxRedirects:    config.MaxRedirects,
		MaxRetries:      config.MaxRetries,
		RouteByLatency:  config.RouteByLatency,
	}
	if config.EnableTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify}
	}
	for _, opt := range options {
		opt(opts)
	}

	var client redis.UniversalClient
	if config.Mode == types.RedisModeCluster {
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisClient{UniversalClient: client}, nil
}

// Subscribe subscribes to channels and forwards messages until ctx is done.
// The error channel receives at most one error and is closed with the
// message channel.
func (r *RedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan *redis.Message, <-chan error) {
	msgs := make(chan *redis.Message)
	errs := make(chan error, 1)

	pubsub := r.UniversalClient.Subscribe(ctx, channels...)

	go func() {
		defer close(msgs)
		defer close(errs)
		defer pubsub.Close()

		if _, err := pubsub.Receive(ctx); err != nil {
			errs <- err
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					errs <- errors.New("redis: subscription closed")
					return
				}
				select {
				case msgs <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgs, errs
}
