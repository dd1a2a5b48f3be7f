package asset

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines asset persistence as seen by the workflow core.
// Listing creation and editing live outside this module.
type Repository interface {
	GetByID(ctx context.Context, assetID uuid.UUID) (*Asset, error)
	SetAvailability(ctx context.Context, assetID uuid.UUID, availability AvailabilityStatus) error
}
