package contract

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SignatureKind identifies which signature slot to set.
type SignatureKind string

const (
	SignatureBuyer  SignatureKind = "buyer"
	SignatureSeller SignatureKind = "seller"
)

// Filter controls contract listing.
type Filter struct {
	Status  *Status
	AssetID *uuid.UUID
	BuyerID *uuid.UUID
	OwnerID *uuid.UUID
}

// Repository defines contract persistence.
type Repository interface {
	Create(ctx context.Context, contract *Contract) error
	GetByID(ctx context.Context, contractID uuid.UUID) (*Contract, error)
	GetByDeal(ctx context.Context, dealID uuid.UUID) (*Contract, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Contract, error)
	// SetSignature sets one signature slot if it is still unset. Returns
	// false when that party already signed.
	SetSignature(ctx context.Context, contractID uuid.UUID, kind SignatureKind) (bool, error)
	// MarkEntryPaid sets one plan entry to paid if it is not already paid.
	// Returns false when the entry was already paid.
	MarkEntryPaid(ctx context.Context, contractID uuid.UUID, index int) (bool, error)
	// MarkEntriesOverdue flips pending entries whose due date has passed.
	// Returns the number of entries changed.
	MarkEntriesOverdue(ctx context.Context, contractID uuid.UUID, now time.Time) (int, error)
	UpdateStatusFrom(ctx context.Context, contractID uuid.UUID, from, to Status) (bool, error)
}
