package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish(context.Background(), Event{
		Type:   EventPurchase,
		At:     time.Now(),
		Fields: map[string]any{"crop_id": uint64(7)},
	})

	for name, ch := range map[string]<-chan []byte{"a": a, "b": b} {
		select {
		case raw := <-ch:
			var e Event
			if err := json.Unmarshal(raw, &e); err != nil {
				t.Fatalf("%s payload: %v", name, err)
			}
			if e.Type != EventPurchase {
				t.Fatalf("%s type=%s", name, e.Type)
			}
		default:
			t.Fatalf("subscriber %s received nothing", name)
		}
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	defer cancel()

	// Overfill the buffer; the extra events are dropped, not blocked on.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Publish(context.Background(), Event{Type: EventCropAdded, At: time.Now()})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered=%d want=%d", got, subscriberBuffer)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub(nil)
	_, cancel := h.Subscribe()
	if h.SubscriberCount() != 1 {
		t.Fatalf("count=%d want=1", h.SubscriberCount())
	}
	cancel()
	if h.SubscriberCount() != 0 {
		t.Fatalf("count=%d want=0", h.SubscriberCount())
	}
}

func TestFanoutSkipsNilSinks(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	defer cancel()

	f := Fanout{nil, Noop{}, h}
	f.Publish(context.Background(), Event{Type: EventBalanceTopUp, At: time.Now()})

	select {
	case <-ch:
	default:
		t.Fatal("fanout did not reach the hub")
	}
}
