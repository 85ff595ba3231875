package repository

import (
	"context"

	"github.com/chromedash/chromedash/pkg/types"
)

// FeatureRepository stores the feature catalog.
type FeatureRepository interface {
	ListFeatures(ctx context.Context) ([]*types.Feature, error)
	GetFeature(ctx context.Context, id int64) (*types.Feature, error)
	SaveFeature(ctx context.Context, feature *types.Feature) error
	DeleteFeature(ctx context.Context, id int64) error
	ListVersions(ctx context.Context) ([]types.Version, error)
}

// StarRepository stores the features each user starred.
type StarRepository interface {
	GetStars(ctx context.Context, email string) ([]int64, error)
	SetStar(ctx context.Context, email string, featureId int64, starred bool) error
}

// SubscriptionRepository stores notification topic subscriptions.
type SubscriptionRepository interface {
	ListTopics(ctx context.Context, email string) ([]string, error)
	Subscribe(ctx context.Context, email, topic string) error
	Unsubscribe(ctx context.Context, email, topic string) error
	Subscribers(ctx context.Context, topic string) ([]string, error)
}

// ServiceWorkerRepository records service worker registrations.
type ServiceWorkerRepository interface {
	AddRegistration(ctx context.Context, reg *types.ServiceWorkerRegistration) error
	ListRegistrations(ctx context.Context) ([]*types.ServiceWorkerRegistration, error)
}
