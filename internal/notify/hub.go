package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// Hub fans events out to live websocket subscribers. A subscriber that falls
// behind its buffer misses events rather than blocking the publisher.
type Hub struct {
	Logger *zap.Logger

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger: logger,
		subs:   make(map[chan []byte]struct{}),
	}
}

func (h *Hub) Publish(_ context.Context, event Event) {
	if h == nil {
		return
	}
	payload := event.JSON()
	if payload == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			if h.Logger != nil {
				h.Logger.Debug("slow event subscriber, dropping event",
					zap.String("type", event.Type))
			}
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function that must be called when the consumer goes away.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
