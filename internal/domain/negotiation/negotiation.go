package negotiation

import (
	"time"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/asset"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Status represents negotiation session status.
type Status string

const (
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusDeclined       Status = "declined"
	StatusDraftRequested Status = "draft_requested"
	StatusDraftGenerated Status = "draft_generated"
	StatusDraftSent      Status = "draft_sent"
	StatusConfirmed      Status = "confirmed"
)

// Active reports whether the status still occupies the (asset, buyer) slot.
// declined and confirmed are terminal.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDraftRequested, StatusDraftGenerated, StatusDraftSent:
		return true
	}
	return false
}

// ActorKind identifies which side of the session may drive a transition.
type ActorKind string

const (
	ActorBuyer ActorKind = "buyer"
	ActorOwner ActorKind = "owner"
)

// transitions is the single transition table for sessions. Each target
// status lists the statuses it may be reached from and the required actor.
var transitions = map[Status]struct {
	from  []Status
	actor ActorKind
}{
	StatusApproved:       {from: []Status{StatusPending}, actor: ActorOwner},
	StatusDeclined:       {from: []Status{StatusPending}, actor: ActorOwner},
	StatusDraftRequested: {from: []Status{StatusApproved}, actor: ActorBuyer},
	StatusDraftGenerated: {from: []Status{StatusDraftRequested}, actor: ActorOwner},
	StatusDraftSent:      {from: []Status{StatusDraftGenerated}, actor: ActorOwner},
	StatusConfirmed:      {from: []Status{StatusApproved, StatusDraftGenerated, StatusDraftSent}, actor: ActorBuyer},
}

// RequiredActor returns which party must drive a transition to target.
func RequiredActor(target Status) ActorKind {
	return transitions[target].actor
}

// AssetSnapshot captures the asset as it was when the offer arrived, kept
// on the session in case the listing later changes.
type AssetSnapshot struct {
	Title    string              `json:"title"`
	Price    int64               `json:"price"`
	Location string              `json:"location"`
	Listing  asset.ListingStatus `json:"listingStatus"`
}

// Decision records who decided a transition, when, and why.
type Decision struct {
	Actor uuid.UUID `json:"actor"`
	At    time.Time `json:"at"`
	Notes string    `json:"notes,omitempty"`
}

// Session is the stateful record of one buyer's offer thread on one asset.
type Session struct {
	ID                   int64         `json:"id"`
	SessionID            uuid.UUID     `json:"sessionId"`
	AssetID              uuid.UUID     `json:"assetId"`
	Snapshot             AssetSnapshot `json:"assetSnapshot"`
	BuyerID              uuid.UUID     `json:"buyerId"`
	OwnerID              uuid.UUID     `json:"ownerId"`
	BuyerOffer           pricing.Offer `json:"buyerOffer"`
	OwnerTerms           pricing.Offer `json:"ownerTerms"`
	BuyerCounterOffer    pricing.Offer `json:"buyerCounterOffer"`
	OwnerCounterOffer    pricing.Offer `json:"ownerCounterOffer"`
	EstimatedReservation int64         `json:"estimatedReservation"`
	Status               Status        `json:"status"`
	Decision             *Decision     `json:"decision,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// CanTransitionTo validates a session status transition.
func (s *Session) CanTransitionTo(target Status) bool {
	t, ok := transitions[target]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == s.Status {
			return true
		}
	}
	return false
}

// PartyFor maps an actor id to its side of the session.
func (s *Session) PartyFor(actorID uuid.UUID) (ActorKind, bool) {
	switch actorID {
	case s.BuyerID:
		return ActorBuyer, true
	case s.OwnerID:
		return ActorOwner, true
	}
	return "", false
}

// Authorize checks that actorID is the party required to drive a
// transition to target and that the transition is permitted from the
// current status. The actor check runs first; adminOverride bypasses it but
// never the state check.
func (s *Session) Authorize(target Status, actorID uuid.UUID, adminOverride bool) error {
	if !adminOverride {
		kind, ok := s.PartyFor(actorID)
		if !ok || kind != RequiredActor(target) {
			return fault.Authorization("actor is not the session's " + string(RequiredActor(target)))
		}
	}
	if !s.CanTransitionTo(target) {
		return fault.InvalidState("negotiation session", string(s.Status), "transition to "+string(target))
	}
	return nil
}
