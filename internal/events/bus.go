// Package events is the in-process publish/subscribe bus connecting the session,
// cart and branch layers without them importing each other.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

const (
	TopicSessionStarted = "session.started"
	TopicSessionEnded   = "session.ended"
	TopicCartUpdated    = "cart.updated"
	TopicBranchChanged  = "branch.changed"
)

type Event interface {
	Topic() string
}

type EndReason string

const (
	EndReasonLogout  EndReason = "logout"
	EndReasonExpired EndReason = "expired"
)

type SessionStarted struct {
	User *models.User `json:"user,omitempty"`
}

func (SessionStarted) Topic() string { return TopicSessionStarted }

type SessionEnded struct {
	Reason EndReason `json:"reason"`
}

func (SessionEnded) Topic() string { return TopicSessionEnded }

type CartUpdated struct {
	State      models.CartState `json:"state"`
	ItemCount  int              `json:"item_count"`
	GrandTotal models.Amount    `json:"grand_total"`
}

func (CartUpdated) Topic() string { return TopicCartUpdated }

type BranchChanged struct {
	Branch *models.Branch `json:"branch"`
}

func (BranchChanged) Topic() string { return TopicBranchChanged }

type subscription struct {
	id      uint64
	handler func(context.Context, Event)
}

// Bus delivers events synchronously, in subscription order. A panicking handler is
// logged and does not affect the others.
type Bus struct {
	mu       sync.RWMutex
	byTopic  map[string][]subscription
	wildcard []subscription
	nextID   uint64
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bus{
		byTopic: make(map[string][]subscription),
		logger:  logger,
	}
}

// Subscribe registers fn for events of type E and returns a function that removes it.
func Subscribe[E Event](b *Bus, fn func(context.Context, E)) func() {

	var zero E
	topic := zero.Topic()

	return b.add(topic, func(ctx context.Context, e Event) {
		if typed, ok := e.(E); ok {
			fn(ctx, typed)
		}
	})
}

// SubscribeAll receives every event regardless of topic.
func (b *Bus) SubscribeAll(fn func(context.Context, Event)) func() {
	return b.add("", fn)
}

func (b *Bus) add(topic string, fn func(context.Context, Event)) func() {

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscription{id: b.nextID, handler: fn}

	if topic == "" {
		b.wildcard = append(b.wildcard, sub)
	} else {
		b.byTopic[topic] = append(b.byTopic[topic], sub)
	}

	var once sync.Once

	return func() {
		once.Do(func() { b.remove(topic, sub.id) })
	}
}

func (b *Bus) remove(topic string, id uint64) {

	b.mu.Lock()
	defer b.mu.Unlock()

	filter := func(subs []subscription) []subscription {
		out := subs[:0:0]
		for _, s := range subs {
			if s.id != id {
				out = append(out, s)
			}
		}
		return out
	}

	if topic == "" {
		b.wildcard = filter(b.wildcard)
		return
	}

	b.byTopic[topic] = filter(b.byTopic[topic])
}

func (b *Bus) Publish(ctx context.Context, e Event) {

	b.mu.RLock()
	subs := make([]subscription, 0, len(b.byTopic[e.Topic()])+len(b.wildcard))
	subs = append(subs, b.byTopic[e.Topic()]...)
	subs = append(subs, b.wildcard...)
	b.mu.RUnlock()

	b.logger.Debug("Publishing event", slog.String("topic", e.Topic()), slog.Int("subscribers", len(subs)))

	for _, s := range subs {
		b.deliver(ctx, s, e)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("⚠️ Event handler panicked",
				slog.String("topic", e.Topic()),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	s.handler(ctx, e)
}
