package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,Sink,Hub

import (
	"context"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/party"
)

// Repository defines notification outbox persistence.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListPending(ctx context.Context, limit int) ([]*Notification, error)
	ListRetryable(ctx context.Context, limit int) ([]*Notification, error)
	ListByRecipient(ctx context.Context, recipient uuid.UUID, limit, offset int) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error
}

// Sink is the fire-and-forget emission surface the workflow services use.
// Implementations must never return delivery failures to the caller.
type Sink interface {
	Emit(ctx context.Context, recipient uuid.UUID, role party.Role, event Event, payload interface{})
}

// Hub delivers messages to connected clients.
type Hub interface {
	Deliver(recipient string, msg *Message) error
}
