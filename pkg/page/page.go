// Package page wires the widgets of the features page to each other and to
// the page services. All handlers run on the goroutine that calls Run.
package page

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"k8s.io/utils/clock"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/query"
	"github.com/chromedash/chromedash/pkg/types"
	"github.com/chromedash/chromedash/pkg/widgets"
)

const (
	IconNotifications    = "notifications"
	IconNotificationsOff = "notifications-off"

	DeniedAlert = "Notifications were previously denied. Please reset the browser permission."

	taskBuffer = 64
)

var ErrAlreadyRunning = errors.New("page is already running")

// Components are the widgets a page glues together.
type Components struct {
	FeatureList     *widgets.FeatureList
	Metadata        *widgets.Metadata
	Search          *widgets.SearchBox
	Legend          *widgets.Legend
	LegendButton    *widgets.Button
	SubscribeButton *widgets.Button
	Header          *widgets.Header
	Body            *widgets.Body
	Counter         *widgets.Counter
	Location        *widgets.Location
	Alerts          *widgets.Alerts
}

// NewComponents builds a fresh set of widgets for a page at hash.
func NewComponents(features widgets.FeatureSource, versions widgets.VersionSource, hash string, notify func(string)) Components {
	return Components{
		FeatureList:     widgets.NewFeatureList(features),
		Metadata:        widgets.NewMetadata(versions),
		Search:          widgets.NewSearchBox(),
		Legend:          widgets.NewLegend(),
		LegendButton:    widgets.NewButton("help"),
		SubscribeButton: widgets.NewButton(IconNotificationsOff),
		Header:          widgets.NewHeader(),
		Body:            widgets.NewBody(),
		Counter:         widgets.NewCounter(),
		Location:        widgets.NewLocation(hash),
		Alerts:          widgets.NewAlerts(notify),
	}
}

type Option func(*Page)

// WithClock drives the search debounce from c.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(p *Page) {
		p.clock = c
	}
}

// WithSearchDebounce sets how long typing must pause before the list filters.
func WithSearchDebounce(d time.Duration) Option {
	return func(p *Page) {
		p.searchDelay = d
	}
}

// WithViews sets the legend entries.
func WithViews(views []types.View) Option {
	return func(p *Page) {
		p.views = views
	}
}

type Page struct {
	c Components
	s Services

	clock       clock.WithDelayedExecution
	searchDelay time.Duration
	views       []types.View

	search func(string)
	tasks  chan func()
	ready  chan struct{}
	wg     sync.WaitGroup

	mu  sync.Mutex
	ctx context.Context // set once by Run
}

func New(c Components, s Services, opts ...Option) *Page {
	p := &Page{
		c:           c,
		s:           s,
		clock:       clock.RealClock{},
		searchDelay: common.DefaultDebounceDelay,
		tasks:       make(chan func(), taskBuffer),
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.search = common.Debounce(func(value string) {
		p.post(func() {
			p.c.FeatureList.Filter(value)
			p.c.Metadata.SetSelected("")
		})
	}, p.searchDelay, common.WithClock(p.clock))

	return p
}

// Ready is closed once Run has subscribed to every widget.
func (p *Page) Ready() <-chan struct{} {
	return p.ready
}

// Components returns the widgets driven by the page.
func (p *Page) Components() Components {
	return p.c
}

// Run subscribes to the widgets and handles their events until ctx is done.
// It waits for in-flight service calls before returning. A page runs once.
func (p *Page) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.ctx != nil {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.ctx = ctx
	p.mu.Unlock()
	defer p.wg.Wait()

	// Subscriptions outlive ctx so closed channels never race ctx.Done below.
	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queryChanged := p.c.Metadata.OnQueryChanged.Subscribe(subCtx)
	search := p.c.Search.OnSearch.Subscribe(subCtx)
	input := p.c.Search.OnInput.Subscribe(subCtx)
	filtered := p.c.FeatureList.OnFiltered.Subscribe(subCtx)
	scrollList := p.c.FeatureList.OnHasScrollList.Subscribe(subCtx)
	filterCategory := p.c.FeatureList.OnFilterCategory.Subscribe(subCtx)
	filterOwner := p.c.FeatureList.OnFilterOwner.Subscribe(subCtx)
	filterComponent := p.c.FeatureList.OnFilterComponent.Subscribe(subCtx)
	appReady := p.c.FeatureList.OnAppReady.Subscribe(subCtx)
	popState := p.c.Location.OnPopState.Subscribe(subCtx)
	legendClick := p.c.LegendButton.OnClick.Subscribe(subCtx)

	var subscribeClick <-chan widgets.Click
	if p.s.Push != nil && p.s.Push.Supported() {
		p.c.SubscribeButton.Show()
		subscribeClick = p.c.SubscribeButton.OnClick.Subscribe(subCtx)
	}

	p.restoreDeepLink()
	p.c.Legend.SetViews(p.views)
	close(p.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-p.tasks:
			task()
		case ev := <-queryChanged:
			p.setSearch(query.ForVersion(ev.Version))
		case ev := <-search:
			if ev.Value == "" {
				p.c.FeatureList.Filter("")
				p.c.Metadata.SetSelected("")
			}
		case ev := <-input:
			p.search(ev.Value)
		case ev := <-filtered:
			p.c.Counter.SetText(strconv.Itoa(ev.Count))
		case <-scrollList:
			p.c.Header.SetFixed(false)
		case ev := <-filterCategory:
			p.setSearch(query.Category(ev.Val))
		case ev := <-filterOwner:
			p.setSearch(query.Owner(ev.Val))
		case ev := <-filterComponent:
			p.setSearch(query.Component(ev.Val))
		case ev := <-popState:
			if ev.State != nil {
				p.c.FeatureList.ScrollToID(ev.State.ID)
			}
		case <-appReady:
			p.onAppReady()
		case <-subscribeClick:
			p.onSubscribeClick()
		case <-legendClick:
			p.c.Legend.Toggle()
		}
	}
}

func (p *Page) restoreDeepLink() {
	hash := p.c.Location.Hash()
	if hash == "" {
		return
	}

	value, err := url.PathUnescape(hash)
	if err != nil {
		log.Warn().Err(err).Str("hash", hash).Msg("invalid deep link, using it verbatim")
		value = hash
	}
	p.c.Search.SetValue(value)
}

func (p *Page) setSearch(value string) {
	p.c.Search.SetValue(value)
	p.c.FeatureList.Filter(value)
}

func (p *Page) onAppReady() {
	p.c.Body.SetLoading(false)

	if sw := p.s.ServiceWorker; sw != nil {
		p.async("register service worker", func(ctx context.Context) (func(), error) {
			return nil, sw.Register(ctx)
		})
	}

	if push := p.s.Push; push != nil {
		p.async("init push notifications", func(ctx context.Context) (func(), error) {
			if err := push.Init(ctx); err != nil {
				return nil, err
			}
			if push.Permission() != types.PermissionGranted {
				return nil, nil
			}

			topics, err := push.GetAllSubscribedFeatures(ctx)
			if err != nil {
				return nil, err
			}
			return func() {
				if slices.Contains(topics, types.AllFeaturesTopic) {
					p.c.SubscribeButton.SetIcon(IconNotifications)
				} else {
					p.c.SubscribeButton.SetIcon(IconNotificationsOff)
				}
			}, nil
		})
	}

	if stars := p.s.Stars; stars != nil {
		p.async("get stars", func(ctx context.Context) (func(), error) {
			ids, err := stars.GetStars(ctx)
			if err != nil {
				return nil, err
			}
			return func() { p.c.FeatureList.SetStarredFeatures(ids) }, nil
		})
	}
}

func (p *Page) onSubscribeClick() {
	push := p.s.Push
	if push.Permission() == types.PermissionDenied {
		p.c.Alerts.Alert(DeniedAlert)
		return
	}

	p.async("get subscribed features", func(ctx context.Context) (func(), error) {
		topics, err := push.GetAllSubscribedFeatures(ctx)
		if err != nil {
			return nil, err
		}

		return func() {
			if slices.Contains(topics, types.AllFeaturesTopic) {
				p.c.SubscribeButton.SetIcon(IconNotificationsOff)
				p.async("unsubscribe from all features", func(ctx context.Context) (func(), error) {
					return nil, push.UnsubscribeFromFeature(ctx)
				})
			} else {
				p.c.SubscribeButton.SetIcon(IconNotifications)
				p.async("subscribe to all features", func(ctx context.Context) (func(), error) {
					return nil, push.SubscribeToFeature(ctx)
				})
			}
		}, nil
	})
}

// async runs work off the loop and posts the continuation it returns back
// onto the loop. Errors are logged and dropped.
func (p *Page) async(op string, work func(ctx context.Context) (func(), error)) {
	ctx := p.runContext()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		next, err := work(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("op", op).Msg("page service call failed")
			return
		}
		if next != nil {
			p.post(next)
		}
	}()
}

func (p *Page) runContext() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

// post queues fn to run on the loop. It is dropped once the page stopped.
// Before Run it is dropped when the queue is full.
func (p *Page) post(fn func()) {
	ctx := p.runContext()
	if ctx == nil {
		select {
		case p.tasks <- fn:
		default:
			log.Warn().Msg("page not running, dropping task")
		}
		return
	}

	select {
	case p.tasks <- fn:
	case <-ctx.Done():
	}
}
