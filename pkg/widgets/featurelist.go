package widgets

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedash/chromedash/pkg/query"
	"github.com/chromedash/chromedash/pkg/types"
)

// FeatureSource loads the catalog shown by a FeatureList.
type FeatureSource interface {
	ListFeatures(ctx context.Context) ([]*types.Feature, error)
}

// FeatureList is the filterable list of features.
type FeatureList struct {
	source FeatureSource

	mu         sync.RWMutex
	all        []*types.Feature
	visible    []*types.Feature
	query      string
	starred    map[int64]struct{}
	scrolledTo int64
	loaded     bool

	OnFiltered        *Topic[Filtered]
	OnHasScrollList   *Topic[HasScrollList]
	OnAppReady        *Topic[AppReady]
	OnFilterCategory  *Topic[FilterCategory]
	OnFilterOwner     *Topic[FilterOwner]
	OnFilterComponent *Topic[FilterComponent]
}

func NewFeatureList(source FeatureSource) *FeatureList {
	return &FeatureList{
		source:            source,
		starred:           map[int64]struct{}{},
		OnFiltered:        NewTopic[Filtered](),
		OnHasScrollList:   NewTopic[HasScrollList](),
		OnAppReady:        NewTopic[AppReady](),
		OnFilterCategory:  NewTopic[FilterCategory](),
		OnFilterOwner:     NewTopic[FilterOwner](),
		OnFilterComponent: NewTopic[FilterComponent](),
	}
}

// Load fetches the catalog, applies the current query and announces the
// list is ready.
func (l *FeatureList) Load(ctx context.Context) error {
	features, err := l.source.ListFeatures(ctx)
	if err != nil {
		return fmt.Errorf("load features: %w", err)
	}

	l.mu.Lock()
	l.all = features
	l.loaded = true
	q := l.query
	l.mu.Unlock()

	if len(features) > 0 {
		l.OnHasScrollList.Publish(HasScrollList{})
	}
	l.Filter(q)
	l.OnAppReady.Publish(AppReady{Count: len(features)})
	return nil
}

// Filter shows the features matching q. An empty q shows everything.
func (l *FeatureList) Filter(q string) {
	parsed := query.Parse(q)

	l.mu.Lock()
	l.query = q
	l.visible = parsed.Filter(l.all)
	count := len(l.visible)
	loaded := l.loaded
	l.mu.Unlock()

	if loaded {
		l.OnFiltered.Publish(Filtered{Query: q, Count: count})
	}
}

// ScrollToID scrolls to a visible feature and reports whether it was found.
func (l *FeatureList) ScrollToID(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range l.visible {
		if f.Id == id {
			l.scrolledTo = id
			return true
		}
	}
	return false
}

func (l *FeatureList) SetStarredFeatures(ids []int64) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	l.mu.Lock()
	l.starred = set
	l.mu.Unlock()
}

func (l *FeatureList) IsStarred(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.starred[id]
	return ok
}

func (l *FeatureList) StarredCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.starred)
}

// Visible returns the currently shown features.
func (l *FeatureList) Visible() []*types.Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*types.Feature(nil), l.visible...)
}

func (l *FeatureList) Query() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.query
}

func (l *FeatureList) ScrolledTo() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scrolledTo
}

// Feature looks up a loaded feature by id.
func (l *FeatureList) Feature(id int64) (*types.Feature, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.all {
		if f.Id == id {
			return f, true
		}
	}
	return nil, false
}

// ClickCategory is the user clicking a feature's category chip.
func (l *FeatureList) ClickCategory(val string) {
	l.OnFilterCategory.Publish(FilterCategory{Val: val})
}

// ClickOwner is the user clicking one of a feature's owners.
func (l *FeatureList) ClickOwner(val string) {
	l.OnFilterOwner.Publish(FilterOwner{Val: val})
}

// ClickComponent is the user clicking a feature's component.
func (l *FeatureList) ClickComponent(val string) {
	l.OnFilterComponent.Publish(FilterComponent{Val: val})
}
