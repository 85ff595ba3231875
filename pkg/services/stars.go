package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

// StarService reads and writes the acting user's starred features.
type StarService struct {
	user
	stars    repository.StarRepository
	features repository.FeatureRepository
}

func NewStarService(stars repository.StarRepository, features repository.FeatureRepository, email string) *StarService {
	return &StarService{user: user{email: email}, stars: stars, features: features}
}

// GetStars returns the starred feature ids. Anonymous users have none.
func (s *StarService) GetStars(ctx context.Context) ([]int64, error) {
	email := s.resolve(ctx)
	if email == "" {
		return []int64{}, nil
	}

	ids, err := s.stars.GetStars(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get stars: %w", err)
	}
	return ids, nil
}

// SetStar stars or unstars a feature that exists in the catalog.
func (s *StarService) SetStar(ctx context.Context, featureId int64, starred bool) error {
	email, err := s.require(ctx)
	if err != nil {
		return err
	}

	if starred {
		if _, err := s.features.GetFeature(ctx, featureId); err != nil {
			return err
		}
	}

	if err := s.stars.SetStar(ctx, email, featureId, starred); err != nil {
		return fmt.Errorf("set star: %w", err)
	}

	log.Debug().Str("email", email).Int64("feature_id", featureId).Bool("starred", starred).Msg("star updated")
	return nil
}

// Starred returns the starred features themselves, skipping ids that left the catalog.
func (s *StarService) Starred(ctx context.Context) ([]*types.Feature, error) {
	ids, err := s.GetStars(ctx)
	if err != nil {
		return nil, err
	}

	features := make([]*types.Feature, 0, len(ids))
	for _, id := range ids {
		f, err := s.features.GetFeature(ctx, id)
		if err != nil {
			if (&types.ErrFeatureNotFound{}).From(err) {
				continue
			}
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}
