package page

import (
	"context"

	"github.com/chromedash/chromedash/pkg/types"
)

// StarService returns the ids of the features the current user starred.
type StarService interface {
	GetStars(ctx context.Context) ([]int64, error)
}

// PushNotifications manages the current user's notification topics. The
// subscribe and unsubscribe calls act on the all-features topic.
type PushNotifications interface {
	Init(ctx context.Context) error
	Supported() bool
	Permission() types.NotificationPermission
	GetAllSubscribedFeatures(ctx context.Context) ([]string, error)
	SubscribeToFeature(ctx context.Context) error
	UnsubscribeFromFeature(ctx context.Context) error
}

// ServiceWorker registers the page's offline worker.
type ServiceWorker interface {
	Register(ctx context.Context) error
}

// Services are the external collaborators of a page. Nil services are skipped.
type Services struct {
	Stars         StarService
	Push          PushNotifications
	ServiceWorker ServiceWorker
}
