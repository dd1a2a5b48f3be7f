package draft

import (
	"time"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Status represents deal-draft status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReserved  Status = "reserved"
	StatusCancelled Status = "cancelled"
)

// Draft is the pre-contract summary created after owner approval. Exactly
// one draft exists per negotiation session.
type Draft struct {
	ID                 int64            `json:"id"`
	DraftID            uuid.UUID        `json:"draftId"`
	SessionID          uuid.UUID        `json:"sessionId"`
	AssetID            uuid.UUID        `json:"assetId"`
	BuyerID            uuid.UUID        `json:"buyerId"`
	OwnerID            uuid.UUID        `json:"ownerId"`
	Title              string           `json:"title"`
	Location           string           `json:"location"`
	MeetingDate        *time.Time       `json:"meetingDate,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	Price              int64            `json:"agreedPrice"`
	Schedule           pricing.Schedule `json:"paymentSchedule"`
	ReservationPayment *deal.Payment    `json:"reservationPayment,omitempty"`
	LinkedDealID       *uuid.UUID       `json:"linkedDealId,omitempty"`
	Status             Status           `json:"status"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Reserved reports whether the draft already carries a confirmed
// reservation.
func (d *Draft) Reserved() bool {
	return d.Status == StatusReserved
}
