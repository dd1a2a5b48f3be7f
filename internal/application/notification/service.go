package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
)

// Service is the notification outbox: workflow services emit through it
// after their state change commits, and a background dispatcher delivers
// the rows through the hub. Implements notification.Sink.
type Service struct {
	repo   notification.Repository
	hub    notification.Hub
	logger zerolog.Logger
}

// NewService creates a notification service.
func NewService(repo notification.Repository, hub notification.Hub, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		logger: logger.With().Str("service", "notification").Logger(),
	}
}

// Emit records a pending notification. Fire-and-forget: failure is logged
// and discarded so it can never roll back the state change that preceded it.
func (s *Service) Emit(ctx context.Context, recipient uuid.UUID, role party.Role, event notification.Event, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", string(event)).Msg("failed to marshal notification payload, using empty")
		raw = []byte("{}")
	}
	n := notification.New(recipient, role, event, raw)
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn().Err(err).
			Str("event", string(event)).
			Str("recipient", recipient.String()).
			Msg("failed to enqueue notification")
	}
}

// DispatchPending delivers queued notifications through the hub. Returns
// the number processed.
func (s *Service) DispatchPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	for _, n := range pending {
		s.deliver(ctx, n)
	}
	return len(pending), nil
}

// DispatchRetryable requeues and delivers failed notifications that still
// have retries left.
func (s *Service) DispatchRetryable(ctx context.Context, limit int) (int, error) {
	retryable, err := s.repo.ListRetryable(ctx, limit)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range retryable {
		if err := n.ResetForRetry(); err != nil {
			continue
		}
		s.deliver(ctx, n)
		count++
	}
	return count, nil
}

// ListByRecipient returns a party's notifications, newest first.
func (s *Service) ListByRecipient(ctx context.Context, recipient uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipient, limit, offset)
}

func (s *Service) deliver(ctx context.Context, n *notification.Notification) {
	if err := s.hub.Deliver(n.Recipient.String(), notification.NewMessage(n)); err != nil {
		n.MarkFailed(err.Error())
		s.logger.Warn().Err(err).
			Str("notification_id", n.NotificationID.String()).
			Msg("notification delivery failed")
	} else {
		n.MarkSent()
	}
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Warn().Err(err).
			Str("notification_id", n.NotificationID.String()).
			Msg("failed to update notification status")
	}
}
