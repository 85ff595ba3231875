// Package catalog seeds the feature repository from a JSON or YAML document
// and exports it back.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/types"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	seedLockTtlS    = 60
	seedLockRetries = 3
)

// Document is the on-disk shape of a catalog.
type Document struct {
	Features []*types.Feature `json:"features" yaml:"features"`
}

// FormatFor picks the document format from the key's extension.
func FormatFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses and validates a catalog document.
func Decode(data []byte, format string) ([]*types.Feature, error) {
	var doc Document

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", format, err)
	}

	seen := make(map[int64]struct{}, len(doc.Features))
	for i, f := range doc.Features {
		if f == nil || f.Id <= 0 {
			return nil, fmt.Errorf("feature %d: id must be positive", i)
		}
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d: name required", f.Id)
		}
		if _, dup := seen[f.Id]; dup {
			return nil, fmt.Errorf("feature %d: duplicate id", f.Id)
		}
		seen[f.Id] = struct{}{}
	}
	return doc.Features, nil
}

// Encode renders features as a catalog document.
func Encode(features []*types.Feature, format string) ([]byte, error) {
	doc := Document{Features: features}
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	}
	return nil, fmt.Errorf("unsupported catalog format: %s", format)
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int
	// New holds ids that were not in the previous import. It is empty on the
	// first import and when no redis is available to remember ids.
	New []int64
}

// Catalog moves feature documents between an ObjectStore and a repository.
type Catalog struct {
	store    ObjectStore
	features repository.FeatureRepository
	lock     *common.RedisLock
	seen     *common.SeenTracker
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPrivateRepository skips the cross-gateway seed lock. Used when the
// feature repository belongs to a single gateway.
func WithPrivateRepository() Option {
	return func(c *Catalog) {
		c.lock = nil
	}
}

// NewCatalog creates a catalog. rdb may be nil in local mode, in which case
// imports are not serialized across gateways and new features are not tracked.
func NewCatalog(store ObjectStore, features repository.FeatureRepository, rdb *common.RedisClient, opts ...Option) *Catalog {
	c := &Catalog{store: store, features: features}
	if rdb != nil {
		c.lock = common.NewRedisLock(rdb)
		c.seen = common.NewSeenTracker(rdb)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Import loads the document at key into the feature repository.
func (c *Catalog) Import(ctx context.Context, key string) (*ImportResult, error) {
	if c.lock != nil {
		lockKey := common.Keys.CatalogSeedLock()
		if err := c.lock.Acquire(ctx, lockKey, common.RedisLockOptions{TtlS: seedLockTtlS, Retries: seedLockRetries}); err != nil {
			return nil, fmt.Errorf("acquire seed lock: %w", err)
		}
		defer func() {
			if err := c.lock.Release(lockKey); err != nil {
				log.Error().Str("lock_key", lockKey).Err(err).Msg("failed to release seed lock")
			}
		}()
	}

	start := time.Now()
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	features, err := Decode(data, FormatFor(key))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(features))
	for _, f := range features {
		if f.Updated.IsZero() {
			f.Updated = start.UTC()
		}
		if err := c.features.SaveFeature(ctx, f); err != nil {
			return nil, fmt.Errorf("save feature %d: %w", f.Id, err)
		}
		ids = append(ids, f.Id)
	}

	result := &ImportResult{Imported: len(features)}
	if c.seen != nil {
		fresh, err := c.seen.Diff(ctx, common.Keys.CatalogSeen(), ids)
		if err != nil {
			log.Warn().Err(err).Msg("failed to diff catalog ids")
		}
		result.New = fresh
	}

	log.Info().
		Str("key", key).
		Int("imported", result.Imported).
		Int("new", len(result.New)).
		Dur("duration", time.Since(start)).
		Msg("catalog imported")

	return result, nil
}

// ImportIfExists is Import that treats a missing document as an empty import.
func (c *Catalog) ImportIfExists(ctx context.Context, key string) (*ImportResult, error) {
	res, err := c.Import(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		log.Warn().Str("key", key).Msg("catalog seed not found, starting empty")
		return &ImportResult{}, nil
	}
	return res, err
}

// Export writes the repository's features to key.
func (c *Catalog) Export(ctx context.Context, key string) (int, error) {
	features, err := c.features.ListFeatures(ctx)
	if err != nil {
		return 0, fmt.Errorf("list features: %w", err)
	}

	data, err := Encode(features, FormatFor(key))
	if err != nil {
		return 0, err
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return 0, fmt.Errorf("write catalog: %w", err)
	}
	return len(features), nil
}
