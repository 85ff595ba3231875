package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/chromedash/chromedash/pkg/types"
)

// PushNotifications adapts the subscriptions API to a page. Permission is
// tracked locally and becomes denied when the gateway refuses a subscription.
type PushNotifications struct {
	client *Client

	mu         sync.Mutex
	permission types.NotificationPermission
}

func NewPushNotifications(c *Client, permission types.NotificationPermission) *PushNotifications {
	if !permission.Valid() {
		permission = types.PermissionDefault
	}
	return &PushNotifications{client: c, permission: permission}
}

// Init checks that the gateway is reachable.
func (p *PushNotifications) Init(ctx context.Context) error {
	return p.client.Health(ctx)
}

// Supported is true when the client is signed in.
func (p *PushNotifications) Supported() bool {
	return p.client.Authenticated()
}

func (p *PushNotifications) Permission() types.NotificationPermission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *PushNotifications) setPermission(perm types.NotificationPermission) {
	p.mu.Lock()
	p.permission = perm
	p.mu.Unlock()
}

func (p *PushNotifications) GetAllSubscribedFeatures(ctx context.Context) ([]string, error) {
	return p.client.ListSubscriptions(ctx)
}

func (p *PushNotifications) SubscribeToFeature(ctx context.Context) error {
	err := p.client.Subscribe(ctx, types.AllFeaturesTopic)
	switch {
	case err == nil:
		p.setPermission(types.PermissionGranted)
	case IsStatus(err, http.StatusForbidden):
		p.setPermission(types.PermissionDenied)
	}
	return err
}

func (p *PushNotifications) UnsubscribeFromFeature(ctx context.Context) error {
	return p.client.Unsubscribe(ctx, types.AllFeaturesTopic)
}

// ServiceWorker registers a fixed scope with the gateway.
type ServiceWorker struct {
	client *Client
	scope  string
}

func NewServiceWorker(c *Client, scope string) *ServiceWorker {
	return &ServiceWorker{client: c, scope: scope}
}

func (s *ServiceWorker) Register(ctx context.Context) error {
	_, err := s.client.RegisterServiceWorker(ctx, s.scope)
	return err
}
