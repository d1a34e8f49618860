// Package notify delivers fire-and-forget event records for mutating ledger
// operations. Events are not state: they are never persisted or replayed, and
// a failed delivery never fails the operation that emitted it.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	EventCropAdded        = "crop.added"
	EventStockAdded       = "crop.stock_added"
	EventCropDeactivated  = "crop.deactivated"
	EventPriceChanged     = "crop.price_changed"
	EventPurchase         = "market.purchase"
	EventPolicyPurchased  = "insurance.policy_purchased"
	EventClaimSubmitted   = "insurance.claim_submitted"
	EventClaimProcessed   = "insurance.claim_processed"
	EventBalanceTopUp     = "market.top_up"
	EventBalanceWithdrawn = "market.withdrawal"
)

type Event struct {
	Type   string         `json:"type"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (e Event) JSON() []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return raw
}

type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// Fanout delivers each event to every sink in order.
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, event Event) {
	for _, n := range f {
		if n != nil {
			n.Publish(ctx, event)
		}
	}
}

// LogNotifier is the always-on sink: every event lands in the service log.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Publish(_ context.Context, event Event) {
	if n == nil || n.Logger == nil {
		return
	}
	n.Logger.Info("event",
		zap.String("type", event.Type),
		zap.Time("at", event.At),
		zap.Any("fields", event.Fields),
	)
}

// Noop is the sink used when no observer is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
