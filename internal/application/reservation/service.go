package reservation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
)

// Result is the outcome of a reservation confirmation. Duplicate marks the
// defined success path where the reservation had already been confirmed.
type Result struct {
	Draft     *draft.Draft `json:"draft"`
	Deal      *deal.Deal   `json:"deal"`
	Duplicate bool         `json:"duplicate,omitempty"`
}

// Service promotes a deal draft into a confirmed reservation: one deposit
// payment and one deal, no matter how many times confirmation is retried.
type Service struct {
	draftRepo draft.Repository
	dealRepo  deal.Repository
	sink      notification.Sink
	auditSvc  *appAudit.Service
	currency  string
	logger    zerolog.Logger
}

// NewService creates a reservation service.
func NewService(draftRepo draft.Repository, dealRepo deal.Repository, sink notification.Sink, auditSvc *appAudit.Service, currency string, logger zerolog.Logger) *Service {
	return &Service{
		draftRepo: draftRepo,
		dealRepo:  dealRepo,
		sink:      sink,
		auditSvc:  auditSvc,
		currency:  currency,
		logger:    logger.With().Str("service", "reservation").Logger(),
	}
}

// Confirm records the reservation deposit on a draft and finds or creates
// the deal for it. Idempotent: a second confirmation of the same draft
// converges on the existing deposit and deal.
func (s *Service) Confirm(ctx context.Context, draftID uuid.UUID, buyerID uuid.UUID, paymentMethod string) (*Result, error) {
	d, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if d == nil || d.BuyerID != buyerID {
		return nil, fault.NotFound("draft", draftID)
	}
	if d.Status == draft.StatusCancelled {
		return nil, fault.InvalidState("draft", string(d.Status), "reservation")
	}

	if d.Reserved() {
		existing, err := s.findDeal(ctx, d)
		if err != nil {
			return nil, err
		}
		return &Result{Draft: d, Deal: existing, Duplicate: true}, nil
	}

	payment := &deal.Payment{
		Amount:    depositAmount(d),
		Method:    paymentMethod,
		Currency:  s.currency,
		Reference: "RSV-" + xid.New().String(),
		Status:    deal.PaymentPaid,
		PaidAt:    time.Now().UTC(),
	}

	dl, err := s.findOrCreateDeal(ctx, d, payment)
	if err != nil {
		return nil, err
	}

	reserved, err := s.draftRepo.MarkReserved(ctx, d.DraftID, payment, dl.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve draft: %w", err)
	}
	if !reserved {
		// Lost the race to a concurrent confirmation; converge on its
		// deposit and deal.
		d, err = s.draftRepo.GetByID(ctx, d.DraftID)
		if err != nil || d == nil {
			return nil, fmt.Errorf("failed to reload reserved draft: %w", err)
		}
		existing, err := s.findDeal(ctx, d)
		if err != nil {
			return nil, err
		}
		return &Result{Draft: d, Deal: existing, Duplicate: true}, nil
	}
	d.Status = draft.StatusReserved
	d.ReservationPayment = payment
	d.LinkedDealID = &dl.DealID

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityDraft,
		EntityID:   d.DraftID.String(),
		Action:     audit.ActionReserve,
		Actor:      buyerID.String(),
		Reason:     fmt.Sprintf("deposit %d %s via %s", payment.Amount, payment.Currency, payment.Method),
	})
	s.sink.Emit(ctx, d.OwnerID, party.RoleOwner, notification.EventReservationConfirmed, reservationPayload(d, dl))
	s.sink.Emit(ctx, d.BuyerID, party.RoleBuyer, notification.EventReservationConfirmed, reservationPayload(d, dl))

	return &Result{Draft: d, Deal: dl}, nil
}

func (s *Service) findDeal(ctx context.Context, d *draft.Draft) (*deal.Deal, error) {
	dl, err := s.dealRepo.FindBySession(ctx, d.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find deal by session: %w", err)
	}
	if dl != nil {
		return dl, nil
	}
	dl, err = s.dealRepo.FindByParties(ctx, d.AssetID, d.BuyerID, d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find deal by parties: %w", err)
	}
	if dl == nil {
		return nil, fault.NotFound("deal for draft", d.DraftID)
	}
	return dl, nil
}

func (s *Service) findOrCreateDeal(ctx context.Context, d *draft.Draft, payment *deal.Payment) (*deal.Deal, error) {
	dl, err := s.dealRepo.FindBySession(ctx, d.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find deal by session: %w", err)
	}
	if dl == nil {
		dl, err = s.dealRepo.FindByParties(ctx, d.AssetID, d.BuyerID, d.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to find deal by parties: %w", err)
		}
	}
	if dl != nil {
		set, err := s.dealRepo.SetDeposit(ctx, dl.DealID, payment)
		if err != nil {
			return nil, fmt.Errorf("failed to set deposit: %w", err)
		}
		if set {
			dl.Deposit = payment
		}
		return dl, nil
	}

	sessionID := d.SessionID
	dl = &deal.Deal{
		DealID:     uuid.New(),
		AssetID:    d.AssetID,
		BuyerID:    d.BuyerID,
		OwnerID:    d.OwnerID,
		SessionID:  &sessionID,
		OfferPrice: d.Price,
		FinalPrice: d.Price,
		Deposit:    payment,
		Status:     deal.StatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.dealRepo.Create(ctx, dl); err != nil {
		if errors.Is(err, deal.ErrDuplicateSession) {
			// Lost the insert race to a concurrent confirmation; converge
			// on its deal.
			return s.findDeal(ctx, d)
		}
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	return dl, nil
}

// depositAmount takes the schedule's down payment when it is set and falls
// back to 10% of the draft price.
func depositAmount(d *draft.Draft) int64 {
	if d.Schedule.DownPaymentAmount > 0 {
		return d.Schedule.DownPaymentAmount
	}
	return int64(math.Round(float64(d.Price) * 0.10))
}

func reservationPayload(d *draft.Draft, dl *deal.Deal) map[string]interface{} {
	return map[string]interface{}{
		"draftId":   d.DraftID.String(),
		"dealId":    dl.DealID.String(),
		"assetId":   d.AssetID.String(),
		"amount":    d.ReservationPayment.Amount,
		"reference": d.ReservationPayment.Reference,
	}
}
