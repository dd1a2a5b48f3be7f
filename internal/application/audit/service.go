package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/estateflow/estateflow/internal/domain/audit"
)

// Service records signed audit entries for workflow transitions. Logging is
// fire-and-forget: failures are logged, never surfaced to the caller.
type Service struct {
	repo       audit.Repository
	signingKey []byte
	logger     zerolog.Logger
}

// NewService creates an audit service. signingKey may be nil; entries are
// then stored unsigned.
func NewService(repo audit.Repository, signingKey []byte, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		signingKey: signingKey,
		logger:     logger.With().Str("service", "audit").Logger(),
	}
}

// Log records an audit entry.
func (s *Service) Log(ctx context.Context, entry *audit.Entry) {
	if entry.AuditID == uuid.Nil {
		entry.AuditID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(s.signingKey) > 0 {
		sig, err := audit.Sign(entry, s.signingKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to sign audit entry")
		} else {
			entry.Signature = sig
		}
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Str("entity_type", string(entry.EntityType)).
			Str("entity_id", entry.EntityID).
			Msg("failed to persist audit entry")
	}
}

// ListByEntity returns the audit trail of one aggregate.
func (s *Service) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string, limit, offset int) ([]*audit.Entry, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}

// Verify re-checks an entry's signature against the service key.
func (s *Service) Verify(entry *audit.Entry) (bool, error) {
	if len(s.signingKey) == 0 {
		return false, nil
	}
	return audit.Verify(entry, s.signingKey)
}
