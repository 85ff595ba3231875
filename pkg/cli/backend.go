package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/client"
	"github.com/chromedash/chromedash/pkg/page"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/services"
	"github.com/chromedash/chromedash/pkg/types"
	"github.com/chromedash/chromedash/pkg/widgets"
)

// Starrer changes the current user's stars.
type Starrer interface {
	GetStars(ctx context.Context) ([]int64, error)
	SetStar(ctx context.Context, id int64, starred bool) error
}

// Backend is everything a browse session needs, either served by a gateway
// or by in-process repositories.
type Backend struct {
	Features widgets.FeatureSource
	Versions widgets.VersionSource
	Services page.Services
	Stars    Starrer
	Views    []types.View
}

// RemoteBackend serves a session from the gateway behind c.
func RemoteBackend(ctx context.Context, c *client.Client, permission types.NotificationPermission) (*Backend, error) {
	views, err := c.Legend(ctx)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		Features: c,
		Versions: c,
		Views:    views,
		Services: page.Services{
			Push:          client.NewPushNotifications(c, permission),
			ServiceWorker: client.NewServiceWorker(c, ""),
		},
	}
	if c.Authenticated() {
		b.Services.Stars = c
		b.Stars = c
	}
	return b, nil
}

// LocalBackend serves a session from a catalog file kept in memory. email
// identifies the user for stars and subscriptions.
func LocalBackend(ctx context.Context, seedPath, email string, permission types.NotificationPermission) (*Backend, error) {
	features := repository.NewFeatureMemoryRepository()

	if seedPath != "" {
		cat := catalog.NewCatalog(catalog.NewFileStore(filepath.Dir(seedPath)), features, nil)
		if _, err := cat.Import(ctx, filepath.Base(seedPath)); err != nil {
			return nil, fmt.Errorf("load %s: %w", seedPath, err)
		}
	}

	views, err := catalog.Views()
	if err != nil {
		return nil, err
	}

	stars := services.NewStarService(repository.NewStarMemoryRepository(), features, email)
	notifications := services.NewNotificationService(
		repository.NewSubscriptionMemoryRepository(),
		features,
		types.NotificationsConfig{Enabled: email != "", AllFeaturesTopic: types.AllFeaturesTopic},
		email,
		permission,
	)

	return &Backend{
		Features: features,
		Versions: features,
		Views:    views,
		Stars:    stars,
		Services: page.Services{
			Stars:         stars,
			Push:          notifications,
			ServiceWorker: services.NewServiceWorkerService(repository.NewServiceWorkerMemoryRepository(), ""),
		},
	}, nil
}
