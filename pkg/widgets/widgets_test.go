package widgets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromedash/chromedash/pkg/types"
)

type staticFeatures struct {
	features []*types.Feature
	err      error
}

func (s staticFeatures) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	return s.features, s.err
}

func testFeatures() []*types.Feature {
	return []*types.Feature{
		{Id: 1, Name: "WebGPU", Category: "Graphics", Component: "Blink>WebGPU", Owners: []string{"a@chromium.org"}, Milestone: 113, Status: "Enabled by default"},
		{Id: 2, Name: "Popover", Category: "DOM", Component: "Blink>DOM", Owners: []string{"b@chromium.org"}, Milestone: 114, Status: "Enabled by default"},
		{Id: 3, Name: "View Transitions", Category: "CSS", Component: "Blink>CSS", Owners: []string{"a@chromium.org"}, Milestone: 111, Status: "In development"},
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestTopicFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	topic := NewTopic[Click]()

	a := topic.Subscribe(ctx)
	b := topic.Subscribe(ctx)
	assert.Equal(t, 2, topic.Subscribers())

	topic.Publish(Click{})
	receive(t, a)
	receive(t, b)

	cancel()
	_, ok := <-a
	assert.False(t, ok)
	require.Eventually(t, func() bool { return topic.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTopicPublishWithoutSubscribers(t *testing.T) {
	topic := NewTopic[Input]()
	assert.NotPanics(t, func() { topic.Publish(Input{Value: "x"}) })
}

func TestFeatureListLoad(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := NewFeatureList(staticFeatures{features: testFeatures()})
	scroll := list.OnHasScrollList.Subscribe(ctx)
	filtered := list.OnFiltered.Subscribe(ctx)
	ready := list.OnAppReady.Subscribe(ctx)

	require.NoError(t, list.Load(ctx))

	receive(t, scroll)
	assert.Equal(t, Filtered{Count: 3}, receive(t, filtered))
	assert.Equal(t, AppReady{Count: 3}, receive(t, ready))
	assert.Len(t, list.Visible(), 3)
}

func TestFeatureListLoadError(t *testing.T) {
	list := NewFeatureList(staticFeatures{err: errors.New("boom")})
	err := list.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFeatureListFilterBeforeLoad(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := NewFeatureList(staticFeatures{features: testFeatures()})
	filtered := list.OnFiltered.Subscribe(ctx)

	list.Filter("category: CSS")
	select {
	case <-filtered:
		t.Fatal("filter before load must not publish")
	default:
	}

	require.NoError(t, list.Load(ctx))
	ev := receive(t, filtered)
	assert.Equal(t, "category: CSS", ev.Query)
	assert.Equal(t, 1, ev.Count)
}

func TestFeatureListFilter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := NewFeatureList(staticFeatures{features: testFeatures()})
	require.NoError(t, list.Load(ctx))
	filtered := list.OnFiltered.Subscribe(ctx)

	list.Filter("milestone=114")
	assert.Equal(t, Filtered{Query: "milestone=114", Count: 1}, receive(t, filtered))
	assert.Equal(t, int64(2), list.Visible()[0].Id)

	list.Filter("browsers.chrome.owners: a@chromium.org")
	assert.Equal(t, 2, receive(t, filtered).Count)

	list.Filter("")
	assert.Equal(t, 3, receive(t, filtered).Count)
	assert.Equal(t, "", list.Query())
}

func TestFeatureListScrollToID(t *testing.T) {
	list := NewFeatureList(staticFeatures{features: testFeatures()})
	require.NoError(t, list.Load(context.Background()))

	assert.True(t, list.ScrollToID(3))
	assert.Equal(t, int64(3), list.ScrolledTo())

	list.Filter("component: Blink>DOM")
	assert.False(t, list.ScrollToID(3))
	assert.Equal(t, int64(3), list.ScrolledTo())
}

func TestFeatureListStars(t *testing.T) {
	list := NewFeatureList(staticFeatures{})
	list.SetStarredFeatures([]int64{1, 3})

	assert.True(t, list.IsStarred(1))
	assert.False(t, list.IsStarred(2))
	assert.Equal(t, 2, list.StarredCount())

	list.SetStarredFeatures(nil)
	assert.Equal(t, 0, list.StarredCount())
}

func TestFeatureListClicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := NewFeatureList(staticFeatures{})
	cat := list.OnFilterCategory.Subscribe(ctx)
	owner := list.OnFilterOwner.Subscribe(ctx)
	comp := list.OnFilterComponent.Subscribe(ctx)

	list.ClickCategory("CSS")
	list.ClickOwner("a@chromium.org")
	list.ClickComponent("Blink>CSS")

	assert.Equal(t, "CSS", receive(t, cat).Val)
	assert.Equal(t, "a@chromium.org", receive(t, owner).Val)
	assert.Equal(t, "Blink>CSS", receive(t, comp).Val)
}

func TestSearchBox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	box := NewSearchBox()
	input := box.OnInput.Subscribe(ctx)
	search := box.OnSearch.Subscribe(ctx)

	box.SetValue("quiet")
	assert.Equal(t, "quiet", box.Value())

	box.Type("webgpu")
	assert.Equal(t, Input{Value: "webgpu"}, receive(t, input))

	box.Submit()
	assert.Equal(t, Search{Value: "webgpu"}, receive(t, search))

	box.Clear()
	assert.Equal(t, Search{Value: ""}, receive(t, search))
	assert.Equal(t, "", box.Value())
}

func TestLocationBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := NewLocation("#milestone%3D114")
	assert.Equal(t, "milestone%3D114", loc.Hash())

	pop := loc.OnPopState.Subscribe(ctx)
	assert.False(t, loc.Back())

	loc.Push(&HistoryState{ID: 7})
	loc.Push(&HistoryState{ID: 9})

	require.True(t, loc.Back())
	assert.Equal(t, &HistoryState{ID: 7}, receive(t, pop).State)

	require.True(t, loc.Back())
	assert.Nil(t, receive(t, pop).State)
}

func TestSimpleWidgets(t *testing.T) {
	header := NewHeader()
	assert.True(t, header.Fixed())
	header.SetFixed(false)
	assert.False(t, header.Fixed())

	body := NewBody()
	assert.True(t, body.Loading())
	body.SetLoading(false)
	assert.False(t, body.Loading())

	btn := NewButton("notifications-off")
	assert.True(t, btn.Hidden())
	btn.Show()
	assert.False(t, btn.Hidden())
	btn.SetIcon("notifications")
	assert.Equal(t, "notifications", btn.Icon())

	legend := NewLegend()
	legend.SetViews([]types.View{{Title: "Shipped"}})
	assert.Len(t, legend.Views(), 1)
	legend.Toggle()
	assert.True(t, legend.Opened())
	legend.Toggle()
	assert.False(t, legend.Opened())

	var notified []string
	alerts := NewAlerts(func(msg string) { notified = append(notified, msg) })
	alerts.Alert("denied")
	assert.Equal(t, []string{"denied"}, alerts.Messages())
	assert.Equal(t, []string{"denied"}, notified)
}
