package common

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	EventBusChannel = "chromedash:events"
)

type EventType string

const (
	EventFeatureUpdated  EventType = "feature.updated"
	EventCatalogReloaded EventType = "catalog.reloaded"
)

type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// FeatureUpdated builds the event announcing a changed feature.
func FeatureUpdated(id int64) Event {
	return Event{Type: EventFeatureUpdated, Data: map[string]any{"id": id}}
}

// FeatureID extracts the feature id of a feature.updated event. JSON
// round-trips turn the id into a float64.
func (e Event) FeatureID() (int64, bool) {
	switch v := e.Data["id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// EventBus fans events out to every gateway replica over redis pub/sub, or
// dispatches in-process when there is no redis.
type EventBus struct {
	rdb      *RedisClient
	channel  string
	handlers map[EventType][]func(Event)
	mu       sync.RWMutex
	ctx      context.Context
}

func NewEventBus(ctx context.Context, rdb *RedisClient) *EventBus {
	return &EventBus{
		rdb:      rdb,
		channel:  EventBusChannel,
		handlers: make(map[EventType][]func(Event)),
		ctx:      ctx,
	}
}

func (eb *EventBus) On(t EventType, fn func(Event)) {
	eb.mu.Lock()
	eb.handlers[t] = append(eb.handlers[t], fn)
	eb.mu.Unlock()
}

func (eb *EventBus) Emit(e Event) {
	if eb.rdb == nil {
		eb.dispatch(e)
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := eb.rdb.Publish(eb.ctx, eb.channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("type", string(e.Type)).Msg("failed to publish event")
	}
}

func (eb *EventBus) dispatch(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}

// Start blocks until the bus context is done.
func (eb *EventBus) Start() {
	if eb.rdb == nil {
		<-eb.ctx.Done()
		return
	}
	log.Info().Str("channel", eb.channel).Msg("eventbus started")
	eb.listen()
}

func (eb *EventBus) listen() {
	for {
		if eb.ctx.Err() != nil {
			return
		}
		msgs, errs := eb.rdb.Subscribe(eb.ctx, eb.channel)
		eb.recv(msgs, errs)

		select {
		case <-eb.ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (eb *EventBus) recv(msgs <-chan *redis.Message, errs <-chan error) {
	for {
		select {
		case <-eb.ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				log.Warn().Err(err).Msg("eventbus subscription dropped")
			}
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var e Event
			if json.Unmarshal([]byte(msg.Payload), &e) == nil {
				eb.dispatch(e)
			}
		}
	}
}
