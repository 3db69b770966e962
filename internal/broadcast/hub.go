// internal/broadcast/hub.go
package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/engine"
)

// Hub is the in-process engine.Broadcaster: it fans committed events out to
// websocket subscriptions. Sends never block; a subscriber that cannot keep
// up loses events and re-fetches authoritative state on reconnect.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	log  *logrus.Logger
}

// NewHub builds an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), log: log}
}

// Subscription receives events for a set of topics on C until Close.
type Subscription struct {
	C      chan engine.Event
	topics []string
	hub    *Hub
	once   sync.Once
}

// Subscribe registers a subscription for the given topics.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		C:      make(chan engine.Event, 32),
		topics: topics,
		hub:    h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		if h.subs[topic] == nil {
			h.subs[topic] = make(map[*Subscription]struct{})
		}
		h.subs[topic][sub] = struct{}{}
	}
	return sub
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		for _, topic := range s.topics {
			delete(h.subs[topic], s)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
		close(s.C)
	})
}

// Publish delivers ev to every subscription on topic. Fire-and-forget: slow
// consumers are skipped, never waited on.
func (h *Hub) Publish(topic string, ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[topic] {
		select {
		case sub.C <- ev:
		default:
			h.log.WithFields(logrus.Fields{
				"topic": topic,
				"event": ev.Type,
			}).Warn("dropping event for slow subscriber")
		}
	}
}
