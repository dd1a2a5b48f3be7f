package deal

import (
	"time"

	"github.com/google/uuid"
)

// Status represents deal status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusClosed    Status = "closed"
)

// PaymentStatus of a deposit payment record.
const (
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Payment is a deposit payment record.
type Payment struct {
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Currency  string    `json:"currency"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	PaidAt    time.Time `json:"paidAt"`
}

// Deal is the record of an accepted transaction and its deposit payment.
// At most one deal exists per negotiation session; legacy records without a
// session link are matched by the (asset, buyer, owner) triple.
type Deal struct {
	ID         int64      `json:"id"`
	DealID     uuid.UUID  `json:"dealId"`
	AssetID    uuid.UUID  `json:"assetId"`
	BuyerID    uuid.UUID  `json:"buyerId"`
	OwnerID    uuid.UUID  `json:"ownerId"`
	SessionID  *uuid.UUID `json:"sessionId,omitempty"`
	OfferPrice int64      `json:"offerPrice"`
	FinalPrice int64      `json:"finalPrice"`
	Deposit    *Payment   `json:"depositPayment,omitempty"`
	Status     Status     `json:"status"`
	ContractID *uuid.UUID `json:"contractId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates deal status transitions.
func (d *Deal) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted:  {StatusClosed, StatusCancelled},
		StatusRejected:  {},
		StatusCancelled: {},
		StatusClosed:    {},
	}
	for _, s := range transitions[d.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// DepositPaid reports whether a deposit has been recorded on the deal.
func (d *Deal) DepositPaid() bool {
	return d.Deposit != nil && d.Deposit.Status == PaymentPaid
}
