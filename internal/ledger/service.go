// Package ledger is the transactional core of the marketplace: crop catalog,
// balance transfers, risk-driven pricing, and the insurance pool. All
// mutations run under one mutual-exclusion domain and inside a single
// database transaction, so cross-entity invariants (stock vs. balance vs.
// policy status) are checked and applied atomically. Preconditions are
// verified before any write; a failed operation leaves no partial state.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"farmflow/internal/config"
	"farmflow/internal/notify"
	"farmflow/internal/repository"
)

type Service struct {
	repo     repository.Repository
	notifier notify.Notifier
	logger   *zap.Logger
	cfg      config.LedgerConfig

	// now is swapped out in tests.
	now func() time.Time

	// One lock over the whole state, not per entity.
	mu sync.Mutex
}

func New(repo repository.Repository, notifier notify.Notifier, logger *zap.Logger, cfg config.LedgerConfig) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Authority returns the identity allowed to adjudicate claims.
func (s *Service) Authority() string {
	return s.cfg.Authority
}

// OracleIdentity returns the identity allowed to push risk scores for any
// crop, alongside each crop's owner.
func (s *Service) OracleIdentity() string {
	return s.cfg.OracleIdentity
}

func (s *Service) Premium() int64 {
	return s.cfg.Premium
}

func (s *Service) emit(ctx context.Context, eventType string, fields map[string]any) {
	s.notifier.Publish(ctx, notify.Event{
		Type:   eventType,
		At:     s.now(),
		Fields: fields,
	})
}

func (s *Service) log() *zap.Logger {
	return s.logger
}
