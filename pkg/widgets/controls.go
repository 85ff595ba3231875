package widgets

import (
	"strings"
	"sync"

	"github.com/chromedash/chromedash/pkg/types"
)

// SearchBox is the search input.
type SearchBox struct {
	mu    sync.RWMutex
	value string

	OnInput  *Topic[Input]
	OnSearch *Topic[Search]
}

func NewSearchBox() *SearchBox {
	return &SearchBox{
		OnInput:  NewTopic[Input](),
		OnSearch: NewTopic[Search](),
	}
}

func (s *SearchBox) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// SetValue replaces the text without publishing an event.
func (s *SearchBox) SetValue(v string) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Type is the user editing the text to v.
func (s *SearchBox) Type(v string) {
	s.SetValue(v)
	s.OnInput.Publish(Input{Value: v})
}

// Clear is the user pressing the clear button.
func (s *SearchBox) Clear() {
	s.SetValue("")
	s.OnSearch.Publish(Search{Value: ""})
}

// Submit is the user pressing enter.
func (s *SearchBox) Submit() {
	s.OnSearch.Publish(Search{Value: s.Value()})
}

// Legend explains the views a feature can be in.
type Legend struct {
	mu     sync.RWMutex
	views  []types.View
	opened bool
}

func NewLegend() *Legend {
	return &Legend{}
}

func (l *Legend) SetViews(views []types.View) {
	l.mu.Lock()
	l.views = append([]types.View(nil), views...)
	l.mu.Unlock()
}

func (l *Legend) Views() []types.View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]types.View(nil), l.views...)
}

// Toggle opens a closed legend and closes an open one.
func (l *Legend) Toggle() {
	l.mu.Lock()
	l.opened = !l.opened
	l.mu.Unlock()
}

func (l *Legend) Opened() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opened
}

// Button is a clickable icon button. Buttons start hidden.
type Button struct {
	mu     sync.RWMutex
	hidden bool
	icon   string

	OnClick *Topic[Click]
}

func NewButton(icon string) *Button {
	return &Button{hidden: true, icon: icon, OnClick: NewTopic[Click]()}
}

func (b *Button) Show() {
	b.mu.Lock()
	b.hidden = false
	b.mu.Unlock()
}

func (b *Button) Hidden() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hidden
}

func (b *Button) Icon() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.icon
}

func (b *Button) SetIcon(icon string) {
	b.mu.Lock()
	b.icon = icon
	b.mu.Unlock()
}

func (b *Button) Click() {
	b.OnClick.Publish(Click{})
}

// Header is the page header; fixed until the list scrolls on its own.
type Header struct {
	mu    sync.RWMutex
	fixed bool
}

func NewHeader() *Header {
	return &Header{fixed: true}
}

func (h *Header) Fixed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fixed
}

func (h *Header) SetFixed(fixed bool) {
	h.mu.Lock()
	h.fixed = fixed
	h.mu.Unlock()
}

// Body tracks whether the page is still loading.
type Body struct {
	mu      sync.RWMutex
	loading bool
}

func NewBody() *Body {
	return &Body{loading: true}
}

func (b *Body) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

func (b *Body) SetLoading(loading bool) {
	b.mu.Lock()
	b.loading = loading
	b.mu.Unlock()
}

// Counter shows the number of visible features.
type Counter struct {
	mu   sync.RWMutex
	text string
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}

func (c *Counter) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Alerts collects messages shown to the user.
type Alerts struct {
	mu       sync.RWMutex
	messages []string
	notify   func(string)
}

// NewAlerts creates an alert sink. notify, if set, is called for every alert.
func NewAlerts(notify func(string)) *Alerts {
	return &Alerts{notify: notify}
}

func (a *Alerts) Alert(msg string) {
	a.mu.Lock()
	a.messages = append(a.messages, msg)
	a.mu.Unlock()

	if a.notify != nil {
		a.notify(msg)
	}
}

func (a *Alerts) Messages() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.messages...)
}

// Location is the page URL fragment and navigation history.
type Location struct {
	mu      sync.RWMutex
	hash    string
	history []*HistoryState

	OnPopState *Topic[PopState]
}

// NewLocation creates a location; hash may include the leading '#'.
func NewLocation(hash string) *Location {
	return &Location{
		hash:       strings.TrimPrefix(hash, "#"),
		OnPopState: NewTopic[PopState](),
	}
}

// Hash returns the fragment without the leading '#'. It may still be URL-encoded.
func (l *Location) Hash() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hash
}

// Push adds a history entry.
func (l *Location) Push(state *HistoryState) {
	l.mu.Lock()
	l.history = append(l.history, state)
	l.mu.Unlock()
}

// Back leaves the current entry and publishes the state of the one below.
// It reports false when there is nothing to go back to.
func (l *Location) Back() bool {
	l.mu.Lock()
	if len(l.history) == 0 {
		l.mu.Unlock()
		return false
	}
	l.history = l.history[:len(l.history)-1]
	var state *HistoryState
	if n := len(l.history); n > 0 {
		state = l.history[n-1]
	}
	l.mu.Unlock()

	l.OnPopState.Publish(PopState{State: state})
	return true
}
