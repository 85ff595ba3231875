package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

// NotificationService records topic subscriptions. Nothing is ever delivered.
type NotificationService struct {
	user
	repo     repository.SubscriptionRepository
	features repository.FeatureRepository
	config   types.NotificationsConfig

	mu          sync.Mutex
	permission  types.NotificationPermission
	initialized bool
}

// NewNotificationService creates the service with the user's current
// notification permission. An empty permission means the user was never asked.
func NewNotificationService(repo repository.SubscriptionRepository, features repository.FeatureRepository, config types.NotificationsConfig, email string, permission types.NotificationPermission) *NotificationService {
	if config.AllFeaturesTopic == "" {
		config.AllFeaturesTopic = types.AllFeaturesTopic
	}
	if !permission.Valid() {
		permission = types.PermissionDefault
	}

	return &NotificationService{
		user:       user{email: email},
		repo:       repo,
		features:   features,
		config:     config,
		permission: permission,
	}
}

func (s *NotificationService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		return fmt.Errorf("notifications are disabled")
	}
	s.initialized = true
	return nil
}

func (s *NotificationService) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *NotificationService) Supported() bool {
	return s.config.Enabled
}

func (s *NotificationService) Permission() types.NotificationPermission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// SetPermission records the answer to a permission prompt.
func (s *NotificationService) SetPermission(p types.NotificationPermission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = p
}

func (s *NotificationService) GetAllSubscribedFeatures(ctx context.Context) ([]string, error) {
	email, err := s.require(ctx)
	if err != nil {
		return nil, err
	}

	topics, err := s.repo.ListTopics(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// SubscribeToFeature subscribes to every feature. Subscribing asks for
// permission, which is granted unless it was denied before.
func (s *NotificationService) SubscribeToFeature(ctx context.Context) error {
	return s.Subscribe(ctx, s.config.AllFeaturesTopic)
}

func (s *NotificationService) UnsubscribeFromFeature(ctx context.Context) error {
	return s.Unsubscribe(ctx, s.config.AllFeaturesTopic)
}

// Subscribe subscribes to topic, which is the all-features topic or a feature id.
func (s *NotificationService) Subscribe(ctx context.Context, topic string) error {
	email, err := s.require(ctx)
	if err != nil {
		return err
	}
	if err := s.validateTopic(ctx, topic); err != nil {
		return err
	}

	s.mu.Lock()
	if s.permission == types.PermissionDenied {
		s.mu.Unlock()
		return types.ErrNotificationsDenied
	}
	s.permission = types.PermissionGranted
	s.mu.Unlock()

	if err := s.repo.Subscribe(ctx, email, topic); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	log.Info().Str("email", email).Str("topic", topic).Msg("subscribed")
	return nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, topic string) error {
	email, err := s.require(ctx)
	if err != nil {
		return err
	}
	if topic == "" {
		return &types.ErrInvalidTopic{Topic: topic}
	}

	if err := s.repo.Unsubscribe(ctx, email, topic); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}

	log.Info().Str("email", email).Str("topic", topic).Msg("unsubscribed")
	return nil
}

// Subscribers lists the emails subscribed to topic.
func (s *NotificationService) Subscribers(ctx context.Context, topic string) ([]string, error) {
	if err := s.validateTopic(ctx, topic); err != nil {
		return nil, err
	}

	emails, err := s.repo.Subscribers(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return emails, nil
}

func (s *NotificationService) validateTopic(ctx context.Context, topic string) error {
	if topic == s.config.AllFeaturesTopic {
		return nil
	}

	id, err := strconv.ParseInt(topic, 10, 64)
	if err != nil || id <= 0 {
		return &types.ErrInvalidTopic{Topic: topic}
	}
	if _, err := s.features.GetFeature(ctx, id); err != nil {
		return err
	}
	return nil
}
