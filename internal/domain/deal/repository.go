package deal

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateSession is returned by Create when a deal already exists for
// the negotiation session. Callers converge on the existing deal.
var ErrDuplicateSession = errors.New("deal already exists for negotiation session")

// Filter controls deal listing.
type Filter struct {
	Status  *Status
	AssetID *uuid.UUID
	BuyerID *uuid.UUID
	OwnerID *uuid.UUID
}

// Repository defines deal persistence.
type Repository interface {
	Create(ctx context.Context, deal *Deal) error
	GetByID(ctx context.Context, dealID uuid.UUID) (*Deal, error)
	// FindBySession locates the deal linked to a negotiation session.
	FindBySession(ctx context.Context, sessionID uuid.UUID) (*Deal, error)
	// FindByParties is the legacy lookup for deals created before session
	// links existed.
	FindByParties(ctx context.Context, assetID, buyerID, ownerID uuid.UUID) (*Deal, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Deal, error)
	// SetDeposit records the deposit payment only if none is present yet.
	// Returns false when a deposit was already recorded.
	SetDeposit(ctx context.Context, dealID uuid.UUID, deposit *Payment) (bool, error)
	UpdateStatusFrom(ctx context.Context, dealID uuid.UUID, from, to Status) (bool, error)
	SetContract(ctx context.Context, dealID, contractID uuid.UUID) error
}
