package widgets

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedash/chromedash/pkg/types"
)

// VersionSource loads the versions listed by the metadata panel.
type VersionSource interface {
	ListVersions(ctx context.Context) ([]types.Version, error)
}

// Metadata is the panel of milestones and statuses.
type Metadata struct {
	source VersionSource

	mu       sync.RWMutex
	versions []types.Version
	selected string

	OnQueryChanged *Topic[QueryChanged]
}

func NewMetadata(source VersionSource) *Metadata {
	return &Metadata{
		source:         source,
		OnQueryChanged: NewTopic[QueryChanged](),
	}
}

func (m *Metadata) Load(ctx context.Context) error {
	versions, err := m.source.ListVersions(ctx)
	if err != nil {
		return fmt.Errorf("load versions: %w", err)
	}

	m.mu.Lock()
	m.versions = versions
	m.mu.Unlock()
	return nil
}

func (m *Metadata) Versions() []types.Version {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Version(nil), m.versions...)
}

// Selected returns the highlighted version, empty when none is.
func (m *Metadata) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// SetSelected changes the highlight without publishing an event.
func (m *Metadata) SetSelected(version string) {
	m.mu.Lock()
	m.selected = version
	m.mu.Unlock()
}

// Select is the user picking a version.
func (m *Metadata) Select(version string) {
	m.SetSelected(version)
	m.OnQueryChanged.Publish(QueryChanged{Version: version})
}
