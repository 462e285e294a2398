package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sovereign/pkg/requestcontext"
)

// Service fronts the audit store. Every policy decision flows through Record,
// which stamps the entry before persisting it.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record stamps EventID and Timestamp if unset and appends the entry. A store
// failure is returned to the caller; decisions must not proceed unaudited.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.EventID == "" {
		entry.EventID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"event_type", entry.EventType,
			"tenant_id", entry.TenantID,
			"error", err,
		)
		return fmt.Errorf("append audit entry: %w", err)
	}

	s.logger.InfoContext(ctx, "audit entry recorded",
		"event_id", entry.EventID,
		"event_type", entry.EventType,
		"tenant_id", entry.TenantID,
		"outcome", entry.Outcome,
	)
	return nil
}

// List returns the tenant's trail, most recent first.
func (s *Service) List(ctx context.Context, q Query) ([]Entry, error) {
	return s.store.List(ctx, q)
}
