package party

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role represents a party role.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Party represents a buyer, owner or administrator. Account management is
// external; the core only resolves identities and roles.
type Party struct {
	ID        int64     `json:"id"`
	PartyID   uuid.UUID `json:"partyId"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Directory resolves acting parties.
type Directory interface {
	GetByID(ctx context.Context, partyID uuid.UUID) (*Party, error)
	RoleOf(ctx context.Context, partyID uuid.UUID) (Role, error)
}
