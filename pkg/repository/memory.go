package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/chromedash/chromedash/pkg/types"
)

// FeatureMemoryRepository implements FeatureRepository in memory.
// This is used for local mode where we don't have Postgres.
type FeatureMemoryRepository struct {
	mu       sync.RWMutex
	features map[int64]*types.Feature
}

func NewFeatureMemoryRepository() *FeatureMemoryRepository {
	return &FeatureMemoryRepository{features: make(map[int64]*types.Feature)}
}

func (r *FeatureMemoryRepository) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Feature, 0, len(r.features))
	for _, f := range r.features {
		cp := *f
		out = append(out, &cp)
	}
	SortFeatures(out)
	return out, nil
}

func (r *FeatureMemoryRepository) GetFeature(ctx context.Context, id int64) (*types.Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.features[id]
	if !ok {
		return nil, &types.ErrFeatureNotFound{Id: id}
	}
	cp := *f
	return &cp, nil
}

func (r *FeatureMemoryRepository) SaveFeature(ctx context.Context, feature *types.Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *feature
	r.features[feature.Id] = &cp
	return nil
}

func (r *FeatureMemoryRepository) DeleteFeature(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.features[id]; !ok {
		return &types.ErrFeatureNotFound{Id: id}
	}
	delete(r.features, id)
	return nil
}

func (r *FeatureMemoryRepository) ListVersions(ctx context.Context) ([]types.Version, error) {
	features, err := r.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	return CollectVersions(features), nil
}

// SortFeatures orders features newest milestone first, then by name.
func SortFeatures(features []*types.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Milestone != features[j].Milestone {
			return features[i].Milestone > features[j].Milestone
		}
		if features[i].Name != features[j].Name {
			return features[i].Name < features[j].Name
		}
		return features[i].Id < features[j].Id
	})
}

// CollectVersions counts features per milestone and per status. Milestones
// come first, newest first; statuses follow alphabetically.
func CollectVersions(features []*types.Feature) []types.Version {
	milestones := map[int]int{}
	statuses := map[string]int{}
	for _, f := range features {
		if f.Milestone > 0 {
			milestones[f.Milestone]++
		}
		if f.Status != "" {
			statuses[f.Status]++
		}
	}

	ms := make([]int, 0, len(milestones))
	for m := range milestones {
		ms = append(ms, m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ms)))

	ss := make([]string, 0, len(statuses))
	for s := range statuses {
		ss = append(ss, s)
	}
	sort.Strings(ss)

	out := make([]types.Version, 0, len(ms)+len(ss))
	for _, m := range ms {
		out = append(out, types.MilestoneVersion(m, milestones[m]))
	}
	for _, s := range ss {
		out = append(out, types.Version{Kind: types.VersionKindStatus, Value: s, Count: statuses[s]})
	}
	return out
}

// StarMemoryRepository implements StarRepository in memory.
type StarMemoryRepository struct {
	mu    sync.RWMutex
	stars map[string]map[int64]struct{}
}

func NewStarMemoryRepository() *StarMemoryRepository {
	return &StarMemoryRepository{stars: make(map[string]map[int64]struct{})}
}

func (r *StarMemoryRepository) GetStars(ctx context.Context, email string) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(r.stars[email]))
	for id := range r.stars[email] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *StarMemoryRepository) SetStar(ctx context.Context, email string, featureId int64, starred bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.stars[email]
	if !ok {
		set = make(map[int64]struct{})
		r.stars[email] = set
	}
	if starred {
		set[featureId] = struct{}{}
	} else {
		delete(set, featureId)
	}
	return nil
}

// SubscriptionMemoryRepository implements SubscriptionRepository in memory.
type SubscriptionMemoryRepository struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{} // email -> topics
	users  map[string]map[string]struct{} // topic -> emails
}

func NewSubscriptionMemoryRepository() *SubscriptionMemoryRepository {
	return &SubscriptionMemoryRepository{
		topics: make(map[string]map[string]struct{}),
		users:  make(map[string]map[string]struct{}),
	}
}

func (r *SubscriptionMemoryRepository) ListTopics(ctx context.Context, email string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.topics[email]), nil
}

func (r *SubscriptionMemoryRepository) Subscribe(ctx context.Context, email, topic string) error {
	if topic == "" {
		return &types.ErrInvalidTopic{Topic: topic}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	addMember(r.topics, email, topic)
	addMember(r.users, topic, email)
	return nil
}

func (r *SubscriptionMemoryRepository) Unsubscribe(ctx context.Context, email, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics[email], topic)
	delete(r.users[topic], email)
	return nil
}

func (r *SubscriptionMemoryRepository) Subscribers(ctx context.Context, topic string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.users[topic]), nil
}

// ServiceWorkerMemoryRepository implements ServiceWorkerRepository in memory.
type ServiceWorkerMemoryRepository struct {
	mu   sync.RWMutex
	regs []*types.ServiceWorkerRegistration
}

func NewServiceWorkerMemoryRepository() *ServiceWorkerMemoryRepository {
	return &ServiceWorkerMemoryRepository{}
}

func (r *ServiceWorkerMemoryRepository) AddRegistration(ctx context.Context, reg *types.ServiceWorkerRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *reg
	r.regs = append(r.regs, &cp)
	return nil
}

func (r *ServiceWorkerMemoryRepository) ListRegistrations(ctx context.Context) ([]*types.ServiceWorkerRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*types.ServiceWorkerRegistration(nil), r.regs...), nil
}

func addMember(m map[string]map[string]struct{}, key, member string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[member] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
