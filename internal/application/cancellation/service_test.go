package cancellation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*negotiation.Session
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *negotiation.Session) error { return nil }

func (r *fakeSessionRepo) GetByID(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	return r.sessions[sessionID], nil
}

func (r *fakeSessionRepo) FindActive(ctx context.Context, assetID, buyerID uuid.UUID) (*negotiation.Session, error) {
	return nil, nil
}

func (r *fakeSessionRepo) List(ctx context.Context, filter negotiation.Filter, limit, offset int) ([]*negotiation.Session, error) {
	return nil, nil
}

func (r *fakeSessionRepo) UpdateOffer(ctx context.Context, s *negotiation.Session) (bool, error) {
	return false, nil
}

func (r *fakeSessionRepo) UpdateStatusFrom(ctx context.Context, sessionID uuid.UUID, from, to negotiation.Status, decision *negotiation.Decision) (bool, error) {
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

type fakeDraftRepo struct {
	drafts map[uuid.UUID]*draft.Draft
}

func (r *fakeDraftRepo) Create(ctx context.Context, d *draft.Draft) error { return nil }

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
	return false, nil
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
}

func (r *fakeDealRepo) Create(ctx context.Context, dl *deal.Deal) error { return nil }

func (r *fakeDealRepo) GetByID(ctx context.Context, dealID uuid.UUID) (*deal.Deal, error) {
	return r.deals[dealID], nil
}

func (r *fakeDealRepo) FindBySession(ctx context.Context, sessionID uuid.UUID) (*deal.Deal, error) {
	return nil, nil
}

func (r *fakeDealRepo) FindByParties(ctx context.Context, assetID, buyerID, ownerID uuid.UUID) (*deal.Deal, error) {
	return nil, nil
}

func (r *fakeDealRepo) List(ctx context.Context, filter deal.Filter, limit, offset int) ([]*deal.Deal, error) {
	return nil, nil
}

func (r *fakeDealRepo) SetDeposit(ctx context.Context, dealID uuid.UUID, deposit *deal.Payment) (bool, error) {
	return false, nil
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
	return nil
}

type fakeContractRepo struct {
	contracts map[uuid.UUID]*contract.Contract
}

func (r *fakeContractRepo) Create(ctx context.Context, c *contract.Contract) error { return nil }

func (r *fakeContractRepo) GetByID(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	return r.contracts[contractID], nil
}

func (r *fakeContractRepo) GetByDeal(ctx context.Context, dealID uuid.UUID) (*contract.Contract, error) {
	return nil, nil
}

func (r *fakeContractRepo) List(ctx context.Context, filter contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	return nil, nil
}

func (r *fakeContractRepo) SetSignature(ctx context.Context, contractID uuid.UUID, kind contract.SignatureKind) (bool, error) {
	return false, nil
}

func (r *fakeContractRepo) MarkEntryPaid(ctx context.Context, contractID uuid.UUID, index int) (bool, error) {
	return false, nil
}

func (r *fakeContractRepo) MarkEntriesOverdue(ctx context.Context, contractID uuid.UUID, now time.Time) (int, error) {
	return 0, nil
}

func (r *fakeContractRepo) UpdateStatusFrom(ctx context.Context, contractID uuid.UUID, from, to contract.Status) (bool, error) {
	c, ok := r.contracts[contractID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

type fakeDirectory struct {
	roles map[uuid.UUID]party.Role
}

func (d *fakeDirectory) GetByID(ctx context.Context, partyID uuid.UUID) (*party.Party, error) {
	role, ok := d.roles[partyID]
	if !ok {
		return nil, nil
	}
	return &party.Party{PartyID: partyID, Role: role}, nil
}

func (d *fakeDirectory) RoleOf(ctx context.Context, partyID uuid.UUID) (party.Role, error) {
	return d.roles[partyID], nil
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

type fixture struct {
	svc       *Service
	sessions  *fakeSessionRepo
	drafts    *fakeDraftRepo
	deals     *fakeDealRepo
	contracts *fakeContractRepo
	sink      *fakeSink

	buyerID uuid.UUID
	ownerID uuid.UUID
	adminID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  &fakeSessionRepo{sessions: map[uuid.UUID]*negotiation.Session{}},
		drafts:    &fakeDraftRepo{drafts: map[uuid.UUID]*draft.Draft{}},
		deals:     &fakeDealRepo{deals: map[uuid.UUID]*deal.Deal{}},
		contracts: &fakeContractRepo{contracts: map[uuid.UUID]*contract.Contract{}},
		sink:      &fakeSink{},
		buyerID:   uuid.New(),
		ownerID:   uuid.New(),
		adminID:   uuid.New(),
	}
	directory := &fakeDirectory{roles: map[uuid.UUID]party.Role{
		f.buyerID: party.RoleBuyer,
		f.ownerID: party.RoleOwner,
		f.adminID: party.RoleAdmin,
	}}
	auditSvc := appAudit.NewService(&fakeAuditRepo{}, nil, zerolog.Nop())
	f.svc = NewService(f.sessions, f.drafts, f.deals, f.contracts, directory, f.sink, auditSvc, zerolog.Nop())
	return f
}

func (f *fixture) addSession(status negotiation.Status) *negotiation.Session {
	s := &negotiation.Session{
		SessionID: uuid.New(),
		AssetID:   uuid.New(),
		BuyerID:   f.buyerID,
		OwnerID:   f.ownerID,
		Status:    status,
	}
	f.sessions.sessions[s.SessionID] = s
	return s
}

func (f *fixture) addDraft(sessionID uuid.UUID, status draft.Status) *draft.Draft {
	d := &draft.Draft{
		DraftID:   uuid.New(),
		SessionID: sessionID,
		BuyerID:   f.buyerID,
		OwnerID:   f.ownerID,
		Status:    status,
	}
	f.drafts.drafts[d.DraftID] = d
	return d
}

func (f *fixture) addDeal(status deal.Status, paid bool) *deal.Deal {
	dl := &deal.Deal{
		DealID:  uuid.New(),
		AssetID: uuid.New(),
		BuyerID: f.buyerID,
		OwnerID: f.ownerID,
		Status:  status,
	}
	if paid {
		dl.Deposit = &deal.Payment{Amount: 1000, Status: deal.PaymentPaid}
	}
	f.deals.deals[dl.DealID] = dl
	return dl
}

func TestCancelNegotiationCascadesToDraft(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(negotiation.StatusDraftGenerated)
	d := f.addDraft(s.SessionID, draft.StatusDraft)

	result, err := f.svc.Cancel(context.Background(), TargetNegotiation, s.SessionID, f.buyerID)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []Ref{
		{Type: TargetNegotiation, ID: s.SessionID},
		{Type: TargetDraft, ID: d.DraftID},
	}, result.Cancelled)
	assert.Equal(t, negotiation.StatusDeclined, s.Status)
	assert.Equal(t, draft.StatusCancelled, d.Status)
	assert.Equal(t, []notification.Event{
		notification.EventCancelled,
		notification.EventCancelled,
	}, f.sink.events)
}

func TestCancelNegotiationBlockedByDeposit(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(negotiation.StatusDraftSent)
	d := f.addDraft(s.SessionID, draft.StatusReserved)

	result, err := f.svc.Cancel(context.Background(), TargetNegotiation, s.SessionID, f.buyerID)
	require.NoError(t, err)
	assert.Empty(t, result.Cancelled)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "paid reservation deposit")
	assert.Equal(t, negotiation.StatusDraftSent, s.Status)
	assert.Equal(t, draft.StatusReserved, d.Status)
}

func TestCancelNegotiationRejectsStranger(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(negotiation.StatusPending)

	_, err := f.svc.Cancel(context.Background(), TargetNegotiation, s.SessionID, uuid.New())
	require.Error(t, err)
	assert.True(t, fault.IsAuthorization(err))
}

func TestCancelNegotiationRejectsTerminalSession(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(negotiation.StatusConfirmed)

	_, err := f.svc.Cancel(context.Background(), TargetNegotiation, s.SessionID, f.buyerID)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidState(err))
}

func TestAdminForcesCancellationPastDeposit(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(negotiation.StatusDraftSent)
	d := f.addDraft(s.SessionID, draft.StatusReserved)

	result, err := f.svc.Cancel(context.Background(), TargetNegotiation, s.SessionID, f.adminID)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, negotiation.StatusDeclined, s.Status)
	// Reserved drafts stay reserved; only the refund workflow touches them.
	assert.Equal(t, draft.StatusReserved, d.Status)
}

func TestCancelDraft(t *testing.T) {
	f := newFixture(t)
	d := f.addDraft(uuid.New(), draft.StatusDraft)

	result, err := f.svc.Cancel(context.Background(), TargetDraft, d.DraftID, f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, []Ref{{Type: TargetDraft, ID: d.DraftID}}, result.Cancelled)
	assert.Equal(t, draft.StatusCancelled, d.Status)

	_, err = f.svc.Cancel(context.Background(), TargetDraft, d.DraftID, f.ownerID)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidState(err))
}

func TestCancelDealWithDepositWarns(t *testing.T) {
	f := newFixture(t)
	dl := f.addDeal(deal.StatusPending, true)

	result, err := f.svc.Cancel(context.Background(), TargetDeal, dl.DealID, f.buyerID)
	require.NoError(t, err)
	assert.Empty(t, result.Cancelled)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, deal.StatusPending, dl.Status)

	result, err = f.svc.Cancel(context.Background(), TargetDeal, dl.DealID, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, []Ref{{Type: TargetDeal, ID: dl.DealID}}, result.Cancelled)
	assert.Equal(t, deal.StatusCancelled, dl.Status)
}

func TestCancelDealCascadesToDraftContract(t *testing.T) {
	f := newFixture(t)
	dl := f.addDeal(deal.StatusAccepted, false)
	c := &contract.Contract{
		ContractID: uuid.New(),
		DealID:     dl.DealID,
		BuyerID:    f.buyerID,
		OwnerID:    f.ownerID,
		Status:     contract.StatusDraft,
	}
	f.contracts.contracts[c.ContractID] = c
	dl.ContractID = &c.ContractID

	result, err := f.svc.Cancel(context.Background(), TargetDeal, dl.DealID, f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{Type: TargetDeal, ID: dl.DealID},
		{Type: TargetContract, ID: c.ContractID},
	}, result.Cancelled)
	assert.Equal(t, contract.StatusCancelled, c.Status)
}

func TestCancelContractRequiresAdminWhenDepositPaid(t *testing.T) {
	f := newFixture(t)
	dl := f.addDeal(deal.StatusAccepted, true)
	c := &contract.Contract{
		ContractID: uuid.New(),
		DealID:     dl.DealID,
		BuyerID:    f.buyerID,
		OwnerID:    f.ownerID,
		Status:     contract.StatusDraft,
	}
	f.contracts.contracts[c.ContractID] = c

	result, err := f.svc.Cancel(context.Background(), TargetContract, c.ContractID, f.buyerID)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, contract.StatusDraft, c.Status)

	result, err = f.svc.Cancel(context.Background(), TargetContract, c.ContractID, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, []Ref{{Type: TargetContract, ID: c.ContractID}}, result.Cancelled)
	assert.Equal(t, contract.StatusCancelled, c.Status)
}

func TestCancelCompletedContractRejected(t *testing.T) {
	f := newFixture(t)
	c := &contract.Contract{
		ContractID: uuid.New(),
		DealID:     uuid.New(),
		BuyerID:    f.buyerID,
		OwnerID:    f.ownerID,
		Status:     contract.StatusCompleted,
	}
	f.contracts.contracts[c.ContractID] = c

	_, err := f.svc.Cancel(context.Background(), TargetContract, c.ContractID, f.adminID)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidState(err))
}

func TestCancelUnknownTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), TargetType("order"), uuid.New(), f.adminID)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}
