package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/domain/asset"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/contract"
	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// Service manages contract creation, dual-signature completion and the
// payment plan.
type Service struct {
	contractRepo contract.Repository
	draftRepo    draft.Repository
	sessionRepo  negotiation.Repository
	assetRepo    asset.Repository
	sink         notification.Sink
	auditSvc     *appAudit.Service
	logger       zerolog.Logger
}

// NewService creates a contract service.
func NewService(
	contractRepo contract.Repository,
	draftRepo draft.Repository,
	sessionRepo negotiation.Repository,
	assetRepo asset.Repository,
	sink notification.Sink,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		contractRepo: contractRepo,
		draftRepo:    draftRepo,
		sessionRepo:  sessionRepo,
		assetRepo:    assetRepo,
		sink:         sink,
		auditSvc:     auditSvc,
		logger:       logger.With().Str("service", "contract").Logger(),
	}
}

// CreateFromDeal builds the contract for an accepted deal. The payment plan
// comes from the draft's schedule when the deal is session-linked; legacy
// deals without a session fall back to a cash plan at the final price.
func (s *Service) CreateFromDeal(ctx context.Context, d *deal.Deal) (uuid.UUID, error) {
	if d.Status != deal.StatusAccepted {
		return uuid.Nil, fault.InvalidState("deal", string(d.Status), "contract creation")
	}
	if existing, err := s.contractRepo.GetByDeal(ctx, d.DealID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up contract for deal: %w", err)
	} else if existing != nil {
		return existing.ContractID, nil
	}

	schedule, listing, err := s.resolveTerms(ctx, d)
	if err != nil {
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	plan := contract.BuildPlan(schedule, now)
	if d.DepositPaid() && len(plan) > 0 {
		// The reservation deposit covers the down payment entry.
		plan[0].Status = contract.EntryPaid
	}

	c := &contract.Contract{
		ContractID: uuid.New(),
		DealID:     d.DealID,
		AssetID:    d.AssetID,
		BuyerID:    d.BuyerID,
		OwnerID:    d.OwnerID,
		TotalPrice: d.FinalPrice,
		Plan:       plan,
		Listing:    listing,
		Status:     contract.StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.contractRepo.Create(ctx, c); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create contract: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityContract,
		EntityID:   c.ContractID.String(),
		Action:     audit.ActionCreate,
		Actor:      d.OwnerID.String(),
		Reason:     "contract created from deal " + d.DealID.String(),
	})
	return c.ContractID, nil
}

// Sign records one party's signature. When both signatures are present the
// contract activates and the asset availability flips to sold or rented
// according to the originating listing.
func (s *Service) Sign(ctx context.Context, contractID, actorID uuid.UUID) (*contract.Contract, error) {
	c, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	var kind contract.SignatureKind
	switch actorID {
	case c.BuyerID:
		kind = contract.SignatureBuyer
	case c.OwnerID:
		kind = contract.SignatureSeller
	default:
		return nil, fault.Authorization("actor is neither buyer nor seller of the contract")
	}
	if c.Status == contract.StatusCancelled || c.Status == contract.StatusCompleted {
		return nil, fault.InvalidState("contract", string(c.Status), "signing")
	}

	signed, err := s.contractRepo.SetSignature(ctx, contractID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to record signature: %w", err)
	}
	c, err = s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !signed {
		// Party had already signed; nothing further to do.
		return c, nil
	}

	other, otherRole := c.OwnerID, party.RoleOwner
	if kind == contract.SignatureSeller {
		other, otherRole = c.BuyerID, party.RoleBuyer
	}
	s.sink.Emit(ctx, other, otherRole, notification.EventContractSigned, contractPayload(c))
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityContract,
		EntityID:   c.ContractID.String(),
		Action:     audit.ActionSign,
		Actor:      actorID.String(),
		Reason:     string(kind) + " signature recorded",
	})

	if c.FullySigned() {
		if err := s.complete(ctx, c, actorID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MarkInstallmentPaid marks one payment-plan entry paid. Buyer-only. Paying
// the last pending entry completes the contract.
func (s *Service) MarkInstallmentPaid(ctx context.Context, contractID uuid.UUID, index int, actorID uuid.UUID) (*contract.Contract, error) {
	c, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if actorID != c.BuyerID {
		return nil, fault.Authorization("only the buyer may mark installments paid")
	}
	if index < 0 || index >= len(c.Plan) {
		return nil, fault.Validation(fmt.Sprintf("installment index %d out of range (plan has %d entries)", index, len(c.Plan)))
	}
	if c.Status != contract.StatusActive {
		return nil, fault.InvalidState("contract", string(c.Status), "installment payment")
	}

	if _, err := s.contractRepo.MarkEntryPaid(ctx, contractID, index); err != nil {
		return nil, fmt.Errorf("failed to mark installment paid: %w", err)
	}
	c, err = s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	s.sink.Emit(ctx, c.OwnerID, party.RoleOwner, notification.EventInstallmentPaid, map[string]interface{}{
		"contractId": c.ContractID.String(),
		"index":      index,
		"amount":     c.Plan[index].Amount,
	})

	if c.AllPaid() {
		if ok, err := s.contractRepo.UpdateStatusFrom(ctx, contractID, contract.StatusActive, contract.StatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete contract: %w", err)
		} else if ok {
			c.Status = contract.StatusCompleted
		}
	}
	return c, nil
}

// MarkOverdue flips pending plan entries past their due date on active
// contracts. Invoked by the background sweep.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	active := contract.StatusActive
	contracts, err := s.contractRepo.List(ctx, contract.Filter{Status: &active}, limit, 0)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range contracts {
		n, err := s.contractRepo.MarkEntriesOverdue(ctx, c.ContractID, now)
		if err != nil {
			s.logger.Warn().Err(err).Str("contract_id", c.ContractID.String()).Msg("overdue sweep failed")
			continue
		}
		total += n
	}
	return total, nil
}

// Get retrieves a contract by id.
func (s *Service) Get(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	return s.get(ctx, contractID)
}

// List returns contracts matching the filter.
func (s *Service) List(ctx context.Context, filter contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	return s.contractRepo.List(ctx, filter, limit, offset)
}

func (s *Service) get(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	c, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, fault.NotFound("contract", contractID)
	}
	return c, nil
}

func (s *Service) complete(ctx context.Context, c *contract.Contract, actorID uuid.UUID) error {
	ok, err := s.contractRepo.UpdateStatusFrom(ctx, c.ContractID, contract.StatusDraft, contract.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to activate contract: %w", err)
	}
	if !ok {
		// Another signer's completion already ran.
		return nil
	}
	c.Status = contract.StatusActive

	availability := c.CompletionAvailability()
	if err := s.assetRepo.SetAvailability(ctx, c.AssetID, availability); err != nil {
		return fmt.Errorf("failed to update asset availability: %w", err)
	}

	payload := contractPayload(c)
	s.sink.Emit(ctx, c.BuyerID, party.RoleBuyer, notification.EventContractCompleted, payload)
	s.sink.Emit(ctx, c.OwnerID, party.RoleOwner, notification.EventContractCompleted, payload)
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityContract,
		EntityID:   c.ContractID.String(),
		Action:     audit.ActionComplete,
		Actor:      actorID.String(),
		Reason:     "both signatures present; asset marked " + string(availability),
	})
	return nil
}

func (s *Service) resolveTerms(ctx context.Context, d *deal.Deal) (pricing.Schedule, asset.ListingStatus, error) {
	if d.SessionID != nil {
		dr, err := s.draftRepo.GetBySession(ctx, *d.SessionID)
		if err != nil {
			return pricing.Schedule{}, "", fmt.Errorf("failed to load draft for deal: %w", err)
		}
		session, err := s.sessionRepo.GetByID(ctx, *d.SessionID)
		if err != nil {
			return pricing.Schedule{}, "", fmt.Errorf("failed to load session for deal: %w", err)
		}
		if dr != nil && session != nil {
			return dr.Schedule, session.Snapshot.Listing, nil
		}
	}
	a, err := s.assetRepo.GetByID(ctx, d.AssetID)
	if err != nil {
		return pricing.Schedule{}, "", fmt.Errorf("failed to load asset for deal: %w", err)
	}
	if a == nil {
		return pricing.Schedule{}, "", fault.NotFound("asset", d.AssetID)
	}
	price := d.FinalPrice
	schedule := pricing.DeriveSchedule(price, pricing.Offer{Type: pricing.OfferCash, CashPrice: &price})
	return schedule, a.Listing, nil
}

func contractPayload(c *contract.Contract) map[string]interface{} {
	return map[string]interface{}{
		"contractId": c.ContractID.String(),
		"dealId":     c.DealID.String(),
		"assetId":    c.AssetID.String(),
		"status":     string(c.Status),
		"signed": map[string]bool{
			"buyer":  c.Signed.Buyer,
			"seller": c.Signed.Seller,
		},
	}
}
