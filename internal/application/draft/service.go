package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Service converts approved negotiation sessions into deal drafts.
type Service struct {
	draftRepo draft.Repository
	auditSvc  *appAudit.Service
	logger    zerolog.Logger
}

// NewService creates a draft service.
func NewService(draftRepo draft.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		draftRepo: draftRepo,
		auditSvc:  auditSvc,
		logger:    logger.With().Str("service", "draft").Logger(),
	}
}

// CreateFromSession derives a draft from an approved session. Idempotent:
// if a draft already exists for the session it is returned unchanged,
// keeping exactly one draft per negotiation.
func (s *Service) CreateFromSession(ctx context.Context, session *negotiation.Session) (*draft.Draft, error) {
	switch session.Status {
	case negotiation.StatusApproved, negotiation.StatusDraftRequested,
		negotiation.StatusDraftGenerated, negotiation.StatusDraftSent:
	default:
		return nil, fault.InvalidState("negotiation session", string(session.Status), "draft creation")
	}

	existing, err := s.draftRepo.GetBySession(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up draft for session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	// The draft is priced from the buyer's accepted terms, not the averaged
	// counter-offer; the suggested midpoint only ever sized the reservation
	// estimate.
	schedule := pricing.DeriveSchedule(session.Snapshot.Price, session.BuyerOffer)
	d := &draft.Draft{
		DraftID:   uuid.New(),
		SessionID: session.SessionID,
		AssetID:   session.AssetID,
		BuyerID:   session.BuyerID,
		OwnerID:   session.OwnerID,
		Title:     session.Snapshot.Title,
		Location:  session.Snapshot.Location,
		Price:     agreedPrice(session.Snapshot.Price, session.BuyerOffer, schedule),
		Schedule:  schedule,
		Status:    draft.StatusDraft,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.draftRepo.Create(ctx, d); err != nil {
		if errors.Is(err, draft.ErrDuplicateSession) {
			return s.draftRepo.GetBySession(ctx, session.SessionID)
		}
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityDraft,
		EntityID:   d.DraftID.String(),
		Action:     audit.ActionCreate,
		Actor:      session.BuyerID.String(),
		Reason:     "draft created from negotiation " + session.SessionID.String(),
	})
	return d, nil
}

// Get retrieves a draft by id.
func (s *Service) Get(ctx context.Context, draftID uuid.UUID) (*draft.Draft, error) {
	d, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fault.NotFound("draft", draftID)
	}
	return d, nil
}

// GetBySession retrieves the draft linked to a negotiation session, if any.
func (s *Service) GetBySession(ctx context.Context, sessionID uuid.UUID) (*draft.Draft, error) {
	return s.draftRepo.GetBySession(ctx, sessionID)
}

func agreedPrice(assetPrice int64, offer pricing.Offer, schedule pricing.Schedule) int64 {
	switch offer.Type {
	case pricing.OfferCash:
		return schedule.AgreedPrice
	case pricing.OfferRent:
		return schedule.RemainingAmount
	default:
		return assetPrice
	}
}
