package cancellation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/contract"
	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
)

// TargetType names what a cancellation request points at.
type TargetType string

const (
	TargetNegotiation TargetType = "negotiation"
	TargetDraft       TargetType = "draft"
	TargetDeal        TargetType = "deal"
	TargetContract    TargetType = "contract"
)

// Ref identifies one cancelled record.
type Ref struct {
	Type TargetType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

// Result reports what a cancellation did. A paid deposit anywhere in the
// chain blocks the cancellation and surfaces a warning instead.
type Result struct {
	Cancelled []Ref    `json:"cancelled"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Service performs domain cancellation: ordered status transitions, not
// runtime cancellation.
type Service struct {
	sessionRepo  negotiation.Repository
	draftRepo    draft.Repository
	dealRepo     deal.Repository
	contractRepo contract.Repository
	directory    party.Directory
	sink         notification.Sink
	auditSvc     *appAudit.Service
	logger       zerolog.Logger
}

// NewService creates a cancellation service.
func NewService(
	sessionRepo negotiation.Repository,
	draftRepo draft.Repository,
	dealRepo deal.Repository,
	contractRepo contract.Repository,
	directory party.Directory,
	sink notification.Sink,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sessionRepo:  sessionRepo,
		draftRepo:    draftRepo,
		dealRepo:     dealRepo,
		contractRepo: contractRepo,
		directory:    directory,
		sink:         sink,
		auditSvc:     auditSvc,
		logger:       logger.With().Str("service", "cancellation").Logger(),
	}
}

// Cancel cancels the target record and the dependent records beneath it.
// Once a deposit has been paid, cancellation is refused with a warning;
// administrators may still force it, with the refund handled out of band.
func (s *Service) Cancel(ctx context.Context, target TargetType, targetID, actorID uuid.UUID) (*Result, error) {
	admin := s.isAdmin(ctx, actorID)
	switch target {
	case TargetNegotiation:
		return s.cancelNegotiation(ctx, targetID, actorID, admin)
	case TargetDraft:
		return s.cancelDraft(ctx, targetID, actorID, admin)
	case TargetDeal:
		return s.cancelDeal(ctx, targetID, actorID, admin)
	case TargetContract:
		return s.cancelContract(ctx, targetID, actorID, admin)
	default:
		return nil, fault.Validation(fmt.Sprintf("unknown cancellation target %q", target))
	}
}

func (s *Service) cancelNegotiation(ctx context.Context, sessionID, actorID uuid.UUID, admin bool) (*Result, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fault.NotFound("negotiation session", sessionID)
	}
	if _, isParty := session.PartyFor(actorID); !isParty && !admin {
		return nil, fault.Authorization("actor is not a party to the negotiation")
	}
	if !session.Status.Active() {
		return nil, fault.InvalidState("negotiation session", string(session.Status), "cancellation")
	}

	d, err := s.draftRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft for session: %w", err)
	}
	if d != nil && d.Reserved() && !admin {
		return depositWarning("negotiation", sessionID), nil
	}

	result := &Result{}
	ok, err := s.sessionRepo.UpdateStatusFrom(ctx, sessionID, session.Status, negotiation.StatusDeclined, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}
	if ok {
		result.Cancelled = append(result.Cancelled, Ref{Type: TargetNegotiation, ID: sessionID})
		s.logCancel(ctx, audit.EntityNegotiation, sessionID, actorID)
		s.notifyParties(ctx, session.BuyerID, session.OwnerID, TargetNegotiation, sessionID)
	}
	if d != nil && d.Status == draft.StatusDraft {
		if ok, err := s.draftRepo.UpdateStatusFrom(ctx, d.DraftID, draft.StatusDraft, draft.StatusCancelled); err == nil && ok {
			result.Cancelled = append(result.Cancelled, Ref{Type: TargetDraft, ID: d.DraftID})
			s.logCancel(ctx, audit.EntityDraft, d.DraftID, actorID)
		}
	}
	return result, nil
}

func (s *Service) cancelDraft(ctx context.Context, draftID, actorID uuid.UUID, admin bool) (*Result, error) {
	d, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if d == nil {
		return nil, fault.NotFound("draft", draftID)
	}
	if actorID != d.BuyerID && actorID != d.OwnerID && !admin {
		return nil, fault.Authorization("actor is not a party to the draft")
	}
	if d.Reserved() && !admin {
		return depositWarning("draft", draftID), nil
	}
	from := d.Status
	if from == draft.StatusCancelled {
		return nil, fault.InvalidState("draft", string(from), "cancellation")
	}

	result := &Result{}
	ok, err := s.draftRepo.UpdateStatusFrom(ctx, draftID, from, draft.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel draft: %w", err)
	}
	if ok {
		result.Cancelled = append(result.Cancelled, Ref{Type: TargetDraft, ID: draftID})
		s.logCancel(ctx, audit.EntityDraft, draftID, actorID)
		s.notifyParties(ctx, d.BuyerID, d.OwnerID, TargetDraft, draftID)
	}
	return result, nil
}

func (s *Service) cancelDeal(ctx context.Context, dealID, actorID uuid.UUID, admin bool) (*Result, error) {
	dl, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if dl == nil {
		return nil, fault.NotFound("deal", dealID)
	}
	if actorID != dl.BuyerID && actorID != dl.OwnerID && !admin {
		return nil, fault.Authorization("actor is not a party to the deal")
	}
	if dl.DepositPaid() && !admin {
		return depositWarning("deal", dealID), nil
	}
	if !dl.CanTransitionTo(deal.StatusCancelled) {
		return nil, fault.InvalidState("deal", string(dl.Status), "cancellation")
	}

	result := &Result{}
	ok, err := s.dealRepo.UpdateStatusFrom(ctx, dealID, dl.Status, deal.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel deal: %w", err)
	}
	if ok {
		result.Cancelled = append(result.Cancelled, Ref{Type: TargetDeal, ID: dealID})
		s.logCancel(ctx, audit.EntityDeal, dealID, actorID)
		s.notifyParties(ctx, dl.BuyerID, dl.OwnerID, TargetDeal, dealID)
	}
	if dl.ContractID != nil {
		if c, err := s.contractRepo.GetByID(ctx, *dl.ContractID); err == nil && c != nil && c.Status == contract.StatusDraft {
			if ok, err := s.contractRepo.UpdateStatusFrom(ctx, c.ContractID, contract.StatusDraft, contract.StatusCancelled); err == nil && ok {
				result.Cancelled = append(result.Cancelled, Ref{Type: TargetContract, ID: c.ContractID})
				s.logCancel(ctx, audit.EntityContract, c.ContractID, actorID)
			}
		}
	}
	return result, nil
}

func (s *Service) cancelContract(ctx context.Context, contractID, actorID uuid.UUID, admin bool) (*Result, error) {
	c, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, fault.NotFound("contract", contractID)
	}
	if actorID != c.BuyerID && actorID != c.OwnerID && !admin {
		return nil, fault.Authorization("actor is not a party to the contract")
	}
	if !admin {
		if dl, err := s.dealRepo.GetByID(ctx, c.DealID); err == nil && dl != nil && dl.DepositPaid() {
			return depositWarning("contract", contractID), nil
		}
	}
	if !c.CanTransitionTo(contract.StatusCancelled) {
		return nil, fault.InvalidState("contract", string(c.Status), "cancellation")
	}

	result := &Result{}
	ok, err := s.contractRepo.UpdateStatusFrom(ctx, contractID, c.Status, contract.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel contract: %w", err)
	}
	if ok {
		result.Cancelled = append(result.Cancelled, Ref{Type: TargetContract, ID: contractID})
		s.logCancel(ctx, audit.EntityContract, contractID, actorID)
		s.notifyParties(ctx, c.BuyerID, c.OwnerID, TargetContract, contractID)
	}
	return result, nil
}

func (s *Service) isAdmin(ctx context.Context, actorID uuid.UUID) bool {
	role, err := s.directory.RoleOf(ctx, actorID)
	return err == nil && role == party.RoleAdmin
}

func (s *Service) logCancel(ctx context.Context, entity audit.EntityType, id uuid.UUID, actorID uuid.UUID) {
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: entity,
		EntityID:   id.String(),
		Action:     audit.ActionCancel,
		Actor:      actorID.String(),
	})
}

func (s *Service) notifyParties(ctx context.Context, buyerID, ownerID uuid.UUID, target TargetType, id uuid.UUID) {
	payload := map[string]interface{}{"type": string(target), "id": id.String()}
	s.sink.Emit(ctx, buyerID, party.RoleBuyer, notification.EventCancelled, payload)
	s.sink.Emit(ctx, ownerID, party.RoleOwner, notification.EventCancelled, payload)
}

func depositWarning(kind string, id uuid.UUID) *Result {
	return &Result{Warnings: []string{
		fmt.Sprintf("%s %s has a paid reservation deposit; cancellation requires manual handling of the refund", kind, id),
	}}
}
