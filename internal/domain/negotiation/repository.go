package negotiation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateActive is returned by Create when an active session already
// holds the (asset, buyer) slot. Callers merge into the existing session
// instead of failing.
var ErrDuplicateActive = errors.New("active negotiation already exists for asset and buyer")

// Filter controls session listing.
type Filter struct {
	Status  *Status
	AssetID *uuid.UUID
	BuyerID *uuid.UUID
	OwnerID *uuid.UUID
}

// Repository defines session persistence. Status changes are conditional
// updates: the write succeeds only if the stored status still matches the
// expected prior status.
type Repository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	FindActive(ctx context.Context, assetID, buyerID uuid.UUID) (*Session, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Session, error)
	// UpdateOffer refreshes the offer, counter-offers and snapshot of an
	// active session in place. Returns false if the session is no longer
	// active.
	UpdateOffer(ctx context.Context, session *Session) (bool, error)
	// UpdateStatusFrom performs the compare-and-swap transition. Returns
	// false if the stored status no longer matches from.
	UpdateStatusFrom(ctx context.Context, sessionID uuid.UUID, from, to Status, decision *Decision) (bool, error)
}
