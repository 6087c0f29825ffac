// Package registry fans normalized events out to subscribers.
//
// Dispatch is synchronous and strictly ordered: every handler matching an
// event runs on the publishing goroutine, in registration order, before the
// next event is processed. Coalescing of rapid updates happens downstream in
// the store's upsert, never here.
package registry

import (
	"log"
	"sync"

	"prospect-sync/internal/core"
)

// Handler receives matching events.
type Handler func(core.Event)

// Topic selects which events a subscription receives.
type Topic struct {
	all        bool
	campaignID int
}

// All matches every event.
func All() Topic { return Topic{all: true} }

// Campaign matches only events carrying the given campaign id.
func Campaign(id int) Topic { return Topic{campaignID: id} }

// Matches reports whether the topic selects the event.
func (t Topic) Matches(ev core.Event) bool {
	if t.all {
		return true
	}
	id, ok := ev.Campaign()
	return ok && id == t.campaignID
}

type subscription struct {
	topic   Topic
	handler Handler
	active  bool
}

// Registry maintains topic subscriptions and dispatches published events.
// Safe for concurrent subscribe/unsubscribe; Publish is expected to be called
// from a single dispatch goroutine.
type Registry struct {
	mu     sync.Mutex
	subs   []*subscription
	closed bool
	logger *log.Logger
}

// New returns an empty registry.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{logger: logger}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function. Unsubscribing is idempotent and safe after Close.
func (r *Registry) Subscribe(t Topic, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := &subscription{topic: t, handler: h, active: true}
	if !r.closed {
		r.subs = append(r.subs, sub)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !sub.active {
			return
		}
		sub.active = false
		for i, s := range r.subs {
			if s == sub {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every matching live subscription, in
// registration order. A panicking handler is logged and skipped; it never
// blocks delivery to the rest.
func (r *Registry) Publish(ev core.Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := make([]*subscription, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	for _, sub := range snapshot {
		r.mu.Lock()
		alive := sub.active
		r.mu.Unlock()
		if !alive || !sub.topic.Matches(ev) {
			continue
		}
		r.invoke(sub, ev)
	}
}

func (r *Registry) invoke(sub *subscription, ev core.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Println("registry: handler panic on", ev.EventKind(), rec)
		}
	}()
	sub.handler(ev)
}

// SubscriberCount returns the number of live subscriptions.
func (r *Registry) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Close tears the registry down. Further publishes are dropped and held
// unsubscribe handles become no-ops.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for _, s := range r.subs {
		s.active = false
	}
	r.subs = nil
}
