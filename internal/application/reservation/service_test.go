package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	"github.com/estateflow/estateflow/internal/domain/audit"
	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/draft"
	"github.com/estateflow/estateflow/internal/domain/fault"
	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

type fakeDraftRepo struct {
	drafts map[uuid.UUID]*draft.Draft
}

func newFakeDraftRepo(drafts ...*draft.Draft) *fakeDraftRepo {
	r := &fakeDraftRepo{drafts: make(map[uuid.UUID]*draft.Draft)}
	for _, d := range drafts {
		r.drafts[d.DraftID] = d
	}
	return r
}

func (r *fakeDraftRepo) Create(ctx context.Context, d *draft.Draft) error {
	for _, existing := range r.drafts {
		if existing.SessionID == d.SessionID {
			return draft.ErrDuplicateSession
		}
	}
	r.drafts[d.DraftID] = d
	return nil
}

func (r *fakeDraftRepo) GetByID(ctx context.Context, draftID uuid.UUID) (*draft.Draft, error) {
	return r.drafts[draftID], nil
}

func (r *fakeDraftRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) (*draft.Draft, error) {
	for _, d := range r.drafts {
		if d.SessionID == sessionID {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDraftRepo) MarkReserved(ctx context.Context, draftID uuid.UUID, payment *deal.Payment, dealID uuid.UUID) (bool, error) {
	d, ok := r.drafts[draftID]
	if !ok || d.Status != draft.StatusDraft {
		return false, nil
	}
	d.Status = draft.StatusReserved
	d.ReservationPayment = payment
	d.LinkedDealID = &dealID
	return true, nil
}

func (r *fakeDraftRepo) UpdateStatusFrom(ctx context.Context, draftID uuid.UUID, from, to draft.Status) (bool, error) {
	d, ok := r.drafts[draftID]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	return true, nil
}

type fakeDealRepo struct {
	deals map[uuid.UUID]*deal.Deal
	// racing hides existing deals from lookups until Create loses the
	// insert race on the unique session slot.
	racing bool
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{deals: make(map[uuid.UUID]*deal.Deal)}
}

func (r *fakeDealRepo) Create(ctx context.Context, dl *deal.Deal) error {
	if r.racing {
		r.racing = false
		return deal.ErrDuplicateSession
	}
	r.deals[dl.DealID] = dl
	return nil
}

func (r *fakeDealRepo) GetByID(ctx context.Context, dealID uuid.UUID) (*deal.Deal, error) {
	return r.deals[dealID], nil
}

func (r *fakeDealRepo) FindBySession(ctx context.Context, sessionID uuid.UUID) (*deal.Deal, error) {
	if r.racing {
		return nil, nil
	}
	for _, dl := range r.deals {
		if dl.SessionID != nil && *dl.SessionID == sessionID {
			return dl, nil
		}
	}
	return nil, nil
}

func (r *fakeDealRepo) FindByParties(ctx context.Context, assetID, buyerID, ownerID uuid.UUID) (*deal.Deal, error) {
	if r.racing {
		return nil, nil
	}
	for _, dl := range r.deals {
		if dl.AssetID == assetID && dl.BuyerID == buyerID && dl.OwnerID == ownerID {
			return dl, nil
		}
	}
	return nil, nil
}

func (r *fakeDealRepo) List(ctx context.Context, filter deal.Filter, limit, offset int) ([]*deal.Deal, error) {
	var out []*deal.Deal
	for _, dl := range r.deals {
		out = append(out, dl)
	}
	return out, nil
}

func (r *fakeDealRepo) SetDeposit(ctx context.Context, dealID uuid.UUID, deposit *deal.Payment) (bool, error) {
	dl, ok := r.deals[dealID]
	if !ok || dl.Deposit != nil {
		return false, nil
	}
	dl.Deposit = deposit
	return true, nil
}

func (r *fakeDealRepo) UpdateStatusFrom(ctx context.Context, dealID uuid.UUID, from, to deal.Status) (bool, error) {
	dl, ok := r.deals[dealID]
	if !ok || dl.Status != from {
		return false, nil
	}
	dl.Status = to
	return true, nil
}

func (r *fakeDealRepo) SetContract(ctx context.Context, dealID, contractID uuid.UUID) error {
	if dl, ok := r.deals[dealID]; ok {
		dl.ContractID = &contractID
	}
	return nil
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Insert(ctx context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string, limit, offset int) ([]*audit.Entry, error) {
	return r.entries, nil
}

type fakeSink struct {
	events []notification.Event
}

func (f *fakeSink) Emit(ctx context.Context, recipient uuid.UUID, role party.Role, event notification.Event, payload interface{}) {
	f.events = append(f.events, event)
}

func testDraft() *draft.Draft {
	return &draft.Draft{
		DraftID:   uuid.New(),
		SessionID: uuid.New(),
		AssetID:   uuid.New(),
		BuyerID:   uuid.New(),
		OwnerID:   uuid.New(),
		Price:     3_000_000,
		Schedule: pricing.Schedule{
			PaymentType:        pricing.OfferInstallments,
			DownPaymentAmount:  300_000,
			RemainingAmount:    2_700_000,
			InstallmentYears:   3,
			MonthlyInstallment: 75_000,
		},
		Status: draft.StatusDraft,
	}
}

func newService(draftRepo *fakeDraftRepo, dealRepo *fakeDealRepo, sink *fakeSink) *Service {
	auditSvc := appAudit.NewService(&fakeAuditRepo{}, nil, zerolog.Nop())
	return NewService(draftRepo, dealRepo, sink, auditSvc, "USD", zerolog.Nop())
}

func TestConfirmCreatesDealAndDeposit(t *testing.T) {
	d := testDraft()
	draftRepo := newFakeDraftRepo(d)
	dealRepo := newFakeDealRepo()
	sink := &fakeSink{}
	svc := newService(draftRepo, dealRepo, sink)

	result, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.NoError(t, err)
	assert.False(t, result.Duplicate)

	assert.Equal(t, draft.StatusReserved, result.Draft.Status)
	require.NotNil(t, result.Draft.ReservationPayment)
	assert.Equal(t, int64(300_000), result.Draft.ReservationPayment.Amount)
	assert.Equal(t, "USD", result.Draft.ReservationPayment.Currency)
	assert.Contains(t, result.Draft.ReservationPayment.Reference, "RSV-")

	require.NotNil(t, result.Deal)
	assert.Equal(t, deal.StatusPending, result.Deal.Status)
	assert.Equal(t, d.Price, result.Deal.FinalPrice)
	require.NotNil(t, result.Deal.SessionID)
	assert.Equal(t, d.SessionID, *result.Deal.SessionID)
	assert.True(t, result.Deal.DepositPaid())
	require.NotNil(t, result.Draft.LinkedDealID)
	assert.Equal(t, result.Deal.DealID, *result.Draft.LinkedDealID)

	assert.Equal(t, []notification.Event{
		notification.EventReservationConfirmed,
		notification.EventReservationConfirmed,
	}, sink.events)
}

func TestConfirmIsIdempotent(t *testing.T) {
	d := testDraft()
	draftRepo := newFakeDraftRepo(d)
	dealRepo := newFakeDealRepo()
	svc := newService(draftRepo, dealRepo, &fakeSink{})

	first, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.NoError(t, err)

	second, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Deal.DealID, second.Deal.DealID)
	assert.Equal(t, first.Draft.ReservationPayment.Reference, second.Draft.ReservationPayment.Reference)
	assert.Len(t, dealRepo.deals, 1)
}

func TestConfirmFallsBackToTenPercentDeposit(t *testing.T) {
	d := testDraft()
	d.Schedule = pricing.Schedule{PaymentType: pricing.OfferCash}
	draftRepo := newFakeDraftRepo(d)
	svc := newService(draftRepo, newFakeDealRepo(), &fakeSink{})

	result, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "transfer")
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), result.Draft.ReservationPayment.Amount)
}

func TestConfirmReusesExistingDeal(t *testing.T) {
	d := testDraft()
	draftRepo := newFakeDraftRepo(d)
	dealRepo := newFakeDealRepo()

	// A deal from an earlier workflow run, without a session link.
	legacy := &deal.Deal{
		DealID:  uuid.New(),
		AssetID: d.AssetID,
		BuyerID: d.BuyerID,
		OwnerID: d.OwnerID,
		Status:  deal.StatusPending,
	}
	require.NoError(t, dealRepo.Create(context.Background(), legacy))

	svc := newService(draftRepo, dealRepo, &fakeSink{})
	result, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.NoError(t, err)
	assert.Equal(t, legacy.DealID, result.Deal.DealID)
	assert.True(t, result.Deal.DepositPaid())
	assert.Len(t, dealRepo.deals, 1)
}

func TestConfirmConvergesWhenDealInsertLosesRace(t *testing.T) {
	d := testDraft()
	draftRepo := newFakeDraftRepo(d)
	dealRepo := newFakeDealRepo()

	// The concurrent winner's deal is committed but invisible to the
	// pre-insert lookups; our insert then hits its unique session slot.
	sessionID := d.SessionID
	winner := &deal.Deal{
		DealID:    uuid.New(),
		AssetID:   d.AssetID,
		BuyerID:   d.BuyerID,
		OwnerID:   d.OwnerID,
		SessionID: &sessionID,
		Status:    deal.StatusPending,
		Deposit:   &deal.Payment{Amount: 300_000, Status: deal.PaymentPaid},
	}
	require.NoError(t, dealRepo.Create(context.Background(), winner))
	dealRepo.racing = true

	svc := newService(draftRepo, dealRepo, &fakeSink{})
	result, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.NoError(t, err)
	assert.Equal(t, winner.DealID, result.Deal.DealID)
	require.NotNil(t, result.Draft.LinkedDealID)
	assert.Equal(t, winner.DealID, *result.Draft.LinkedDealID)
	assert.Len(t, dealRepo.deals, 1)
}

func TestConfirmRejectsWrongBuyer(t *testing.T) {
	d := testDraft()
	svc := newService(newFakeDraftRepo(d), newFakeDealRepo(), &fakeSink{})

	_, err := svc.Confirm(context.Background(), d.DraftID, uuid.New(), "card")
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}

func TestConfirmRejectsCancelledDraft(t *testing.T) {
	d := testDraft()
	d.Status = draft.StatusCancelled
	svc := newService(newFakeDraftRepo(d), newFakeDealRepo(), &fakeSink{})

	_, err := svc.Confirm(context.Background(), d.DraftID, d.BuyerID, "card")
	require.Error(t, err)
	assert.True(t, fault.IsInvalidState(err))
}
