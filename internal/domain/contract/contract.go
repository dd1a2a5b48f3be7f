package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/asset"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Status represents contract status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// EntryStatus represents a payment-plan entry status.
type EntryStatus string

const (
	EntryPending EntryStatus = "pending"
	EntryPaid    EntryStatus = "paid"
	EntryOverdue EntryStatus = "overdue"
)

// PlanEntry is one payment in the contract's amortization plan.
type PlanEntry struct {
	Amount  int64       `json:"amount"`
	DueDate time.Time   `json:"dueDate"`
	Status  EntryStatus `json:"status"`
}

// Signatures tracks the two-party signature state.
type Signatures struct {
	Buyer  bool `json:"buyer"`
	Seller bool `json:"seller"`
}

// Contract is the binding dual-signed agreement created from an accepted
// deal. Listing carries the originating listing status; it decides whether
// completion marks the asset sold or rented.
type Contract struct {
	ID         int64               `json:"id"`
	ContractID uuid.UUID           `json:"contractId"`
	DealID     uuid.UUID           `json:"dealId"`
	AssetID    uuid.UUID           `json:"assetId"`
	BuyerID    uuid.UUID           `json:"buyerId"`
	OwnerID    uuid.UUID           `json:"ownerId"`
	TotalPrice int64               `json:"totalPrice"`
	Plan       []PlanEntry         `json:"paymentPlan"`
	Signed     Signatures          `json:"signed"`
	Listing    asset.ListingStatus `json:"listingStatus"`
	Status     Status              `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// CanTransitionTo validates contract status transitions.
func (c *Contract) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusDraft:     {StatusActive, StatusCancelled},
		StatusActive:    {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}
	for _, s := range transitions[c.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// FullySigned reports whether both parties have signed.
func (c *Contract) FullySigned() bool {
	return c.Signed.Buyer && c.Signed.Seller
}

// AllPaid reports whether every plan entry has been paid.
func (c *Contract) AllPaid() bool {
	for _, e := range c.Plan {
		if e.Status != EntryPaid {
			return false
		}
	}
	return len(c.Plan) > 0
}

// CompletionAvailability maps the originating listing status to the asset
// availability written when the contract is fully signed.
func (c *Contract) CompletionAvailability() asset.AvailabilityStatus {
	if c.Listing == asset.ListingRent {
		return asset.AvailabilityRented
	}
	return asset.AvailabilitySold
}

// BuildPlan expands a payment schedule into the ordered amortization plan:
// the down payment due at start, then one entry per month. Cash schedules
// collapse into the single down-payment entry.
func BuildPlan(schedule pricing.Schedule, start time.Time) []PlanEntry {
	plan := []PlanEntry{{
		Amount:  schedule.DownPaymentAmount,
		DueDate: start,
		Status:  EntryPending,
	}}
	if schedule.MonthlyInstallment <= 0 {
		return plan
	}
	for i := 1; i <= schedule.TotalMonths(); i++ {
		plan = append(plan, PlanEntry{
			Amount:  schedule.MonthlyInstallment,
			DueDate: start.AddDate(0, i, 0),
			Status:  EntryPending,
		})
	}
	return plan
}
