package draft

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/deal"
)

// ErrDuplicateSession is returned by Create when a draft already exists for
// the negotiation session. Callers return the existing draft.
var ErrDuplicateSession = errors.New("draft already exists for negotiation session")

// Repository defines draft persistence.
type Repository interface {
	Create(ctx context.Context, draft *Draft) error
	GetByID(ctx context.Context, draftID uuid.UUID) (*Draft, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*Draft, error)
	// MarkReserved records the reservation payment and deal link, only if
	// the draft is still unreserved. Returns false when another confirmation
	// already reserved it.
	MarkReserved(ctx context.Context, draftID uuid.UUID, payment *deal.Payment, dealID uuid.UUID) (bool, error)
	UpdateStatusFrom(ctx context.Context, draftID uuid.UUID, from, to Status) (bool, error)
}
