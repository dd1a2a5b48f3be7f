package negotiation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/application/reservation"
	"github.com/estateflow/estateflow/internal/domain/asset"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Drafter materializes the deal draft for a session.
type Drafter interface {
	CreateFromSession(ctx context.Context, session *negotiation.Session) (*draft.Draft, error)
}

// Reserver confirms the reservation deposit against a draft.
type Reserver interface {
	Confirm(ctx context.Context, draftID, buyerID uuid.UUID, paymentMethod string) (*reservation.Result, error)
}

// StartResult wraps a started session. Duplicate marks the defined success
// path where an active session already existed and absorbed the new offer.
type StartResult struct {
	Session   *negotiation.Session `json:"session"`
	Duplicate bool                 `json:"duplicate,omitempty"`
}

// Service owns the negotiation session state machine.
type Service struct {
	sessionRepo negotiation.Repository
	assetRepo   asset.Repository
	directory   party.Directory
	draftSvc    Drafter
	reserveSvc  Reserver
	sink        notification.Sink
	auditSvc    *appAudit.Service
	logger      zerolog.Logger
}

// NewService creates the negotiation engine.
func NewService(
	sessionRepo negotiation.Repository,
	assetRepo asset.Repository,
	directory party.Directory,
	draftSvc Drafter,
	reserveSvc Reserver,
	sink notification.Sink,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		assetRepo:   assetRepo,
		directory:   directory,
		draftSvc:    draftSvc,
		reserveSvc:  reserveSvc,
		sink:        sink,
		auditSvc:    auditSvc,
		logger:      logger.With().Str("service", "negotiation").Logger(),
	}
}

// Start opens a negotiation on an asset, or absorbs the offer into the
// buyer's already-active session on it.
func (s *Service) Start(ctx context.Context, assetID, buyerID uuid.UUID, offer pricing.Offer) (*StartResult, error) {
	if !offer.Type.Valid() {
		return nil, fault.Validation(fmt.Sprintf("unknown offer type %q", offer.Type))
	}
	a, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	if a == nil {
		return nil, fault.NotFound("asset", assetID)
	}
	if !a.Negotiable() {
		return nil, fault.UnavailableAsset(string(a.Availability))
	}
	if err := validateListing(a.Listing, offer.Type); err != nil {
		return nil, err
	}
	ok, err := pricing.EvaluateOfferRule(a.OfferRule(), offer, a.Price)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindValidation, "invalid offer rule on asset")
	}
	if !ok {
		return nil, fault.Validation("offer is below the asset's minimum acceptable terms")
	}

	ownerTerms := a.OwnerTerms(offer.Type)
	counters := pricing.ComputeCounterOffers(offer, ownerTerms, a.Price)

	if existing, err := s.sessionRepo.FindActive(ctx, assetID, buyerID); err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	} else if existing != nil {
		merged, err := s.mergeOffer(ctx, existing, a, offer, ownerTerms, counters)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			return &StartResult{Session: merged, Duplicate: true}, nil
		}
		// The active session went terminal under us; fall through and
		// create a fresh one.
	}

	session := &negotiation.Session{
		SessionID:            uuid.New(),
		AssetID:              assetID,
		Snapshot:             snapshotOf(a),
		BuyerID:              buyerID,
		OwnerID:              a.OwnerID,
		BuyerOffer:           offer,
		OwnerTerms:           ownerTerms,
		BuyerCounterOffer:    counters.Buyer,
		OwnerCounterOffer:    counters.Owner,
		EstimatedReservation: counters.EstimatedReservation,
		Status:               negotiation.StatusPending,
		CreatedAt:            time.Now().UTC(),
		UpdatedAt:            time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, negotiation.ErrDuplicateActive) {
			// Concurrent start won the slot; merge into its session.
			existing, err := s.sessionRepo.FindActive(ctx, assetID, buyerID)
			if err != nil || existing == nil {
				return nil, fmt.Errorf("failed to reload concurrent session: %w", err)
			}
			merged, err := s.mergeOffer(ctx, existing, a, offer, ownerTerms, counters)
			if err != nil {
				return nil, err
			}
			if merged == nil {
				merged = existing
			}
			return &StartResult{Session: merged, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityNegotiation,
		EntityID:   session.SessionID.String(),
		Action:     audit.ActionCreate,
		Actor:      buyerID.String(),
		Reason:     string(offer.Type) + " offer on asset " + assetID.String(),
	})
	s.sink.Emit(ctx, session.OwnerID, party.RoleOwner, notification.EventOfferReceived, sessionPayload(session))
	return &StartResult{Session: session}, nil
}

// Decide records the owner's approval or decline of a pending session.
func (s *Service) Decide(ctx context.Context, sessionID, actorID uuid.UUID, decision negotiation.Status, notes string) (*negotiation.Session, error) {
	if decision != negotiation.StatusApproved && decision != negotiation.StatusDeclined {
		return nil, fault.Validation(fmt.Sprintf("decision must be %q or %q", negotiation.StatusApproved, negotiation.StatusDeclined))
	}
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Authorize(decision, actorID, s.isAdmin(ctx, actorID)); err != nil {
		return nil, err
	}

	rec := &negotiation.Decision{Actor: actorID, At: time.Now().UTC(), Notes: notes}
	ok, err := s.sessionRepo.UpdateStatusFrom(ctx, sessionID, negotiation.StatusPending, decision, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}
	if !ok {
		return nil, fault.InvalidState("negotiation session", string(session.Status), "decision")
	}
	session.Status = decision
	session.Decision = rec

	action := audit.ActionApprove
	if decision == negotiation.StatusDeclined {
		action = audit.ActionDecline
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityNegotiation,
		EntityID:   session.SessionID.String(),
		Action:     action,
		Actor:      actorID.String(),
		Reason:     notes,
	})
	s.sink.Emit(ctx, session.BuyerID, party.RoleBuyer, notification.EventNegotiationDecided, sessionPayload(session))
	return session, nil
}

// RequestDraft is the buyer asking the owner to prepare the deal draft.
func (s *Service) RequestDraft(ctx context.Context, sessionID, actorID uuid.UUID) (*negotiation.Session, error) {
	return s.advance(ctx, sessionID, actorID, negotiation.StatusDraftRequested, notification.EventDraftRequested)
}

// GenerateDraft is the owner materializing the deal draft.
func (s *Service) GenerateDraft(ctx context.Context, sessionID, actorID uuid.UUID) (*negotiation.Session, error) {
	session, err := s.advance(ctx, sessionID, actorID, negotiation.StatusDraftGenerated, notification.EventDraftGenerated)
	if err != nil {
		return nil, err
	}
	if _, err := s.draftSvc.CreateFromSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SendDraft is the owner sending the generated draft to the buyer.
func (s *Service) SendDraft(ctx context.Context, sessionID, actorID uuid.UUID) (*negotiation.Session, error) {
	return s.advance(ctx, sessionID, actorID, negotiation.StatusDraftSent, notification.EventDraftSent)
}

// ConfirmReservation takes an approved session through draft creation and
// deposit payment, then marks it confirmed.
func (s *Service) ConfirmReservation(ctx context.Context, sessionID, actorID uuid.UUID, paymentMethod string) (*reservation.Result, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Authorize(negotiation.StatusConfirmed, actorID, s.isAdmin(ctx, actorID)); err != nil {
		return nil, err
	}

	d, err := s.draftSvc.CreateFromSession(ctx, session)
	if err != nil {
		return nil, err
	}
	result, err := s.reserveSvc.Confirm(ctx, d.DraftID, session.BuyerID, paymentMethod)
	if err != nil {
		return nil, err
	}

	ok, err := s.sessionRepo.UpdateStatusFrom(ctx, sessionID, session.Status, negotiation.StatusConfirmed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm session: %w", err)
	}
	if ok {
		session.Status = negotiation.StatusConfirmed
		s.auditSvc.Log(ctx, &audit.Entry{
			EntityType: audit.EntityNegotiation,
			EntityID:   session.SessionID.String(),
			Action:     audit.ActionReserve,
			Actor:      actorID.String(),
			Reason:     "reservation confirmed, deal " + result.Deal.DealID.String(),
		})
		s.sink.Emit(ctx, session.OwnerID, party.RoleOwner, notification.EventReservationConfirmed, sessionPayload(session))
	}
	return result, nil
}

// Get retrieves a session by id.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	return s.load(ctx, sessionID)
}

// List returns sessions matching the filter.
func (s *Service) List(ctx context.Context, filter negotiation.Filter, limit, offset int) ([]*negotiation.Session, error) {
	return s.sessionRepo.List(ctx, filter, limit, offset)
}

func (s *Service) advance(ctx context.Context, sessionID, actorID uuid.UUID, target negotiation.Status, event notification.Event) (*negotiation.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Authorize(target, actorID, s.isAdmin(ctx, actorID)); err != nil {
		return nil, err
	}
	ok, err := s.sessionRepo.UpdateStatusFrom(ctx, sessionID, session.Status, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}
	if !ok {
		return nil, fault.InvalidState("negotiation session", string(session.Status), "transition to "+string(target))
	}
	session.Status = target

	recipient, role := session.OwnerID, party.RoleOwner
	if negotiation.RequiredActor(target) == negotiation.ActorOwner {
		recipient, role = session.BuyerID, party.RoleBuyer
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityNegotiation,
		EntityID:   session.SessionID.String(),
		Action:     audit.ActionAdvance,
		Actor:      actorID.String(),
		Reason:     "advanced to " + string(target),
	})
	s.sink.Emit(ctx, recipient, role, event, sessionPayload(session))
	return session, nil
}

// mergeOffer absorbs the new offer into an existing active session,
// refreshing counter-offers and the asset snapshot. Returns nil if the
// session stopped being active before the write landed.
func (s *Service) mergeOffer(ctx context.Context, session *negotiation.Session, a *asset.Asset, offer pricing.Offer, ownerTerms pricing.Offer, counters pricing.CounterOffers) (*negotiation.Session, error) {
	session.BuyerOffer = offer
	session.OwnerTerms = ownerTerms
	session.BuyerCounterOffer = counters.Buyer
	session.OwnerCounterOffer = counters.Owner
	session.EstimatedReservation = counters.EstimatedReservation
	session.Snapshot = snapshotOf(a)
	session.UpdatedAt = time.Now().UTC()

	ok, err := s.sessionRepo.UpdateOffer(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to merge offer into active session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	s.sink.Emit(ctx, session.OwnerID, party.RoleOwner, notification.EventOfferUpdated, sessionPayload(session))
	return session, nil
}

func (s *Service) load(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fault.NotFound("negotiation session", sessionID)
	}
	return session, nil
}

func (s *Service) isAdmin(ctx context.Context, actorID uuid.UUID) bool {
	role, err := s.directory.RoleOf(ctx, actorID)
	return err == nil && role == party.RoleAdmin
}

func validateListing(listing asset.ListingStatus, offerType pricing.OfferType) error {
	switch offerType {
	case pricing.OfferRent:
		if listing == asset.ListingSale {
			return fault.Validation("asset is not listed for rent")
		}
	default:
		if listing == asset.ListingRent {
			return fault.Validation("asset is only listed for rent")
		}
	}
	return nil
}

func snapshotOf(a *asset.Asset) negotiation.AssetSnapshot {
	return negotiation.AssetSnapshot{
		Title:    a.Title,
		Price:    a.Price,
		Location: a.Location,
		Listing:  a.Listing,
	}
}

func sessionPayload(session *negotiation.Session) map[string]interface{} {
	return map[string]interface{}{
		"sessionId":            session.SessionID.String(),
		"assetId":              session.AssetID.String(),
		"status":               string(session.Status),
		"offerType":            string(session.BuyerOffer.Type),
		"estimatedReservation": session.EstimatedReservation,
	}
}
