package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

const DefaultServiceWorkerScope = "/"

// ServiceWorkerService records that a client registered its service worker.
type ServiceWorkerService struct {
	repo  repository.ServiceWorkerRepository
	scope string

	mu   sync.Mutex
	last *types.ServiceWorkerRegistration
}

func NewServiceWorkerService(repo repository.ServiceWorkerRepository, scope string) *ServiceWorkerService {
	if scope == "" {
		scope = DefaultServiceWorkerScope
	}
	return &ServiceWorkerService{repo: repo, scope: scope}
}

func (s *ServiceWorkerService) Register(ctx context.Context) error {
	_, err := s.RegisterScope(ctx, s.scope)
	return err
}

// RegisterScope records a registration for scope and returns it.
func (s *ServiceWorkerService) RegisterScope(ctx context.Context, scope string) (*types.ServiceWorkerRegistration, error) {
	if scope == "" {
		scope = s.scope
	}

	reg := &types.ServiceWorkerRegistration{
		Id:           common.GenerateRegistrationID(),
		Scope:        scope,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.repo.AddRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("add registration: %w", err)
	}

	s.mu.Lock()
	s.last = reg
	s.mu.Unlock()

	log.Debug().Str("registration_id", reg.Id).Str("scope", scope).Msg("service worker registered")
	return reg, nil
}

// Last returns the most recent registration made through this service.
func (s *ServiceWorkerService) Last() *types.ServiceWorkerRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
