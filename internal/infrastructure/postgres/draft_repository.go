package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/deal"
	"github.com/estateflow/estateflow/internal/domain/draft"
)

const draftColumns = `id, draft_id, session_id, asset_id, buyer_id, owner_id, title, location, meeting_date, notes, agreed_price, payment_schedule, reservation_payment, linked_deal_id, status, created_at, updated_at`

// DraftRepository implements draft.Repository.
type DraftRepository struct {
	pool *pgxpool.Pool
}

func NewDraftRepository(pool *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

func (r *DraftRepository) Create(ctx context.Context, d *draft.Draft) error {
	schedule, err := json.Marshal(d.Schedule)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO deal_drafts
		(draft_id, session_id, asset_id, buyer_id, owner_id, title, location, meeting_date, notes, agreed_price, payment_schedule, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, d.DraftID, d.SessionID, d.AssetID, d.BuyerID, d.OwnerID, d.Title, d.Location, d.MeetingDate, d.Notes, d.Price, schedule, d.Status, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err, "deal_drafts_session_id_key") {
		return draft.ErrDuplicateSession
	}
	return err
}

func (r *DraftRepository) GetByID(ctx context.Context, draftID uuid.UUID) (*draft.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+draftColumns+` FROM deal_drafts WHERE draft_id=$1
	`, draftID)
	return scanDraft(row)
}

func (r *DraftRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*draft.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+draftColumns+` FROM deal_drafts WHERE session_id=$1
	`, sessionID)
	return scanDraft(row)
}

func (r *DraftRepository) MarkReserved(ctx context.Context, draftID uuid.UUID, payment *deal.Payment, dealID uuid.UUID) (bool, error) {
	paymentData, err := json.Marshal(payment)
	if err != nil {
		return false, err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE deal_drafts
		SET status=$1, reservation_payment=$2, linked_deal_id=$3, updated_at=NOW()
		WHERE draft_id=$4 AND status=$5
	`, draft.StatusReserved, paymentData, dealID, draftID, draft.StatusDraft)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *DraftRepository) UpdateStatusFrom(ctx context.Context, draftID uuid.UUID, from, to draft.Status) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE deal_drafts SET status=$1, updated_at=NOW() WHERE draft_id=$2 AND status=$3
	`, to, draftID, from)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func scanDraft(row pgx.Row) (*draft.Draft, error) {
	var d draft.Draft
	var notes *string
	var schedule, payment []byte
	if err := row.Scan(&d.ID, &d.DraftID, &d.SessionID, &d.AssetID, &d.BuyerID, &d.OwnerID, &d.Title, &d.Location, &d.MeetingDate, &notes, &d.Price, &schedule, &payment, &d.LinkedDealID, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if notes != nil {
		d.Notes = *notes
	}
	if err := json.Unmarshal(schedule, &d.Schedule); err != nil {
		return nil, err
	}
	if len(payment) > 0 {
		var p deal.Payment
		if err := json.Unmarshal(payment, &p); err != nil {
			return nil, err
		}
		d.ReservationPayment = &p
	}
	return &d, nil
}
