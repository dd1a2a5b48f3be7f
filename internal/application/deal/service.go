package deal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	appContract "github.com/estateflow/estateflow/internal/application/contract"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
)

// ContractCreator builds the contract when a deal is accepted.
type ContractCreator interface {
	CreateFromDeal(ctx context.Context, d *deal.Deal) (contractID uuid.UUID, err error)
}

var _ ContractCreator = (*appContract.Service)(nil)

// Service handles deal acceptance and rejection.
type Service struct {
	dealRepo    deal.Repository
	contractSvc ContractCreator
	directory   party.Directory
	sink        notification.Sink
	auditSvc    *appAudit.Service
	logger      zerolog.Logger
}

// NewService creates a deal service.
func NewService(dealRepo deal.Repository, contractSvc ContractCreator, directory party.Directory, sink notification.Sink, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		dealRepo:    dealRepo,
		contractSvc: contractSvc,
		directory:   directory,
		sink:        sink,
		auditSvc:    auditSvc,
		logger:      logger.With().Str("service", "deal").Logger(),
	}
}

// Accept moves a pending deal to accepted and creates its contract.
// Owner-only.
func (s *Service) Accept(ctx context.Context, dealID, actorID uuid.UUID) (*deal.Deal, error) {
	d, err := s.authorize(ctx, dealID, actorID)
	if err != nil {
		return nil, err
	}
	ok, err := s.dealRepo.UpdateStatusFrom(ctx, dealID, deal.StatusPending, deal.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept deal: %w", err)
	}
	if !ok {
		// A prior acceptance may have flipped the status but failed before
		// linking the contract. Retry the contract creation in that case.
		d, err = s.dealRepo.GetByID(ctx, dealID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload deal: %w", err)
		}
		if d == nil {
			return nil, fault.NotFound("deal", dealID)
		}
		if d.Status != deal.StatusAccepted || d.ContractID != nil {
			return nil, fault.InvalidState("deal", string(d.Status), "acceptance")
		}
	}
	d.Status = deal.StatusAccepted

	contractID, err := s.contractSvc.CreateFromDeal(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract for deal: %w", err)
	}
	d.ContractID = &contractID
	if err := s.dealRepo.SetContract(ctx, dealID, contractID); err != nil {
		return nil, fmt.Errorf("failed to link contract to deal: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityDeal,
		EntityID:   d.DealID.String(),
		Action:     audit.ActionAccept,
		Actor:      actorID.String(),
		Reason:     "contract " + contractID.String() + " created",
	})
	s.sink.Emit(ctx, d.BuyerID, party.RoleBuyer, notification.EventDealAccepted, dealPayload(d))
	return d, nil
}

// Reject moves a pending deal to rejected. Owner-only.
func (s *Service) Reject(ctx context.Context, dealID, actorID uuid.UUID) (*deal.Deal, error) {
	d, err := s.authorize(ctx, dealID, actorID)
	if err != nil {
		return nil, err
	}
	ok, err := s.dealRepo.UpdateStatusFrom(ctx, dealID, deal.StatusPending, deal.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to reject deal: %w", err)
	}
	if !ok {
		return nil, fault.InvalidState("deal", string(d.Status), "rejection")
	}
	d.Status = deal.StatusRejected

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityDeal,
		EntityID:   d.DealID.String(),
		Action:     audit.ActionReject,
		Actor:      actorID.String(),
	})
	s.sink.Emit(ctx, d.BuyerID, party.RoleBuyer, notification.EventDealRejected, dealPayload(d))
	return d, nil
}

// Get retrieves a deal by id.
func (s *Service) Get(ctx context.Context, dealID uuid.UUID) (*deal.Deal, error) {
	d, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fault.NotFound("deal", dealID)
	}
	return d, nil
}

// List returns deals matching the filter.
func (s *Service) List(ctx context.Context, filter deal.Filter, limit, offset int) ([]*deal.Deal, error) {
	return s.dealRepo.List(ctx, filter, limit, offset)
}

func (s *Service) authorize(ctx context.Context, dealID, actorID uuid.UUID) (*deal.Deal, error) {
	d, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if d == nil {
		return nil, fault.NotFound("deal", dealID)
	}
	if d.OwnerID != actorID {
		role, err := s.directory.RoleOf(ctx, actorID)
		if err != nil || role != party.RoleAdmin {
			return nil, fault.Authorization("actor is not the deal's owner")
		}
	}
	return d, nil
}

func dealPayload(d *deal.Deal) map[string]interface{} {
	return map[string]interface{}{
		"dealId":     d.DealID.String(),
		"assetId":    d.AssetID.String(),
		"status":     string(d.Status),
		"finalPrice": d.FinalPrice,
	}
}
