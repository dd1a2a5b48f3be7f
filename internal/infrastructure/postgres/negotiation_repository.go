package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/negotiation"
	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// activeSessionStatuses mirrors negotiation.Status.Active for SQL filters.
const activeSessionStatuses = `('pending','approved','draft_requested','draft_generated','draft_sent')`

const sessionColumns = `id, session_id, asset_id, asset_snapshot, buyer_id, owner_id, buyer_offer, owner_terms, buyer_counter_offer, owner_counter_offer, estimated_reservation, status, decision, created_at, updated_at`

// NegotiationRepository implements negotiation.Repository.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{pool: pool}
}

func (r *NegotiationRepository) Create(ctx context.Context, s *negotiation.Session) error {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return err
	}
	buyerOffer, err := json.Marshal(s.BuyerOffer)
	if err != nil {
		return err
	}
	ownerTerms, err := json.Marshal(s.OwnerTerms)
	if err != nil {
		return err
	}
	buyerCounter, err := json.Marshal(s.BuyerCounterOffer)
	if err != nil {
		return err
	}
	ownerCounter, err := json.Marshal(s.OwnerCounterOffer)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO negotiation_sessions
		(session_id, asset_id, asset_snapshot, buyer_id, owner_id, buyer_offer, owner_terms, buyer_counter_offer, owner_counter_offer, estimated_reservation, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, s.SessionID, s.AssetID, snapshot, s.BuyerID, s.OwnerID, buyerOffer, ownerTerms, buyerCounter, ownerCounter, s.EstimatedReservation, s.Status, s.CreatedAt, s.UpdatedAt)
	if isUniqueViolation(err, "negotiation_sessions_active_slot") {
		return negotiation.ErrDuplicateActive
	}
	return err
}

func (r *NegotiationRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM negotiation_sessions WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

func (r *NegotiationRepository) FindActive(ctx context.Context, assetID, buyerID uuid.UUID) (*negotiation.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM negotiation_sessions
		WHERE asset_id=$1 AND buyer_id=$2 AND status IN `+activeSessionStatuses+`
		ORDER BY created_at DESC LIMIT 1
	`, assetID, buyerID)
	return scanSession(row)
}

func (r *NegotiationRepository) List(ctx context.Context, filter negotiation.Filter, limit, offset int) ([]*negotiation.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM negotiation_sessions`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.AssetID != nil {
		query += addWhere(query) + " asset_id=$" + itoa(idx)
		args = append(args, *filter.AssetID)
		idx++
	}
	if filter.BuyerID != nil {
		query += addWhere(query) + " buyer_id=$" + itoa(idx)
		args = append(args, *filter.BuyerID)
		idx++
	}
	if filter.OwnerID != nil {
		query += addWhere(query) + " owner_id=$" + itoa(idx)
		args = append(args, *filter.OwnerID)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []*negotiation.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *NegotiationRepository) UpdateOffer(ctx context.Context, s *negotiation.Session) (bool, error) {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return false, err
	}
	buyerOffer, err := json.Marshal(s.BuyerOffer)
	if err != nil {
		return false, err
	}
	ownerTerms, err := json.Marshal(s.OwnerTerms)
	if err != nil {
		return false, err
	}
	buyerCounter, err := json.Marshal(s.BuyerCounterOffer)
	if err != nil {
		return false, err
	}
	ownerCounter, err := json.Marshal(s.OwnerCounterOffer)
	if err != nil {
		return false, err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE negotiation_sessions
		SET asset_snapshot=$1, buyer_offer=$2, owner_terms=$3, buyer_counter_offer=$4, owner_counter_offer=$5, estimated_reservation=$6, updated_at=NOW()
		WHERE session_id=$7 AND status IN `+activeSessionStatuses+`
	`, snapshot, buyerOffer, ownerTerms, buyerCounter, ownerCounter, s.EstimatedReservation, s.SessionID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *NegotiationRepository) UpdateStatusFrom(ctx context.Context, sessionID uuid.UUID, from, to negotiation.Status, decision *negotiation.Decision) (bool, error) {
	var decisionData []byte
	if decision != nil {
		var err error
		decisionData, err = json.Marshal(decision)
		if err != nil {
			return false, err
		}
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE negotiation_sessions
		SET status=$1, decision=COALESCE($2, decision), updated_at=NOW()
		WHERE session_id=$3 AND status=$4
	`, to, decisionData, sessionID, from)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func scanSession(row pgx.Row) (*negotiation.Session, error) {
	var s negotiation.Session
	var snapshot, buyerOffer, ownerTerms, buyerCounter, ownerCounter, decision []byte
	if err := row.Scan(&s.ID, &s.SessionID, &s.AssetID, &snapshot, &s.BuyerID, &s.OwnerID, &buyerOffer, &ownerTerms, &buyerCounter, &ownerCounter, &s.EstimatedReservation, &s.Status, &decision, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &s.Snapshot); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		data []byte
		dst  *pricing.Offer
	}{
		{buyerOffer, &s.BuyerOffer},
		{ownerTerms, &s.OwnerTerms},
		{buyerCounter, &s.BuyerCounterOffer},
		{ownerCounter, &s.OwnerCounterOffer},
	} {
		if err := json.Unmarshal(pair.data, pair.dst); err != nil {
			return nil, err
		}
	}
	if len(decision) > 0 {
		var d negotiation.Decision
		if err := json.Unmarshal(decision, &d); err != nil {
			return nil, err
		}
		s.Decision = &d
	}
	return &s, nil
}

func addWhere(query string) string {
	if strings.Contains(query, " WHERE ") {
		return " AND"
	}
	return " WHERE"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	buf := make([]byte, 0, 12)
	for i > 0 {
		d := byte(i % 10)
		buf = append([]byte{d + '0'}, buf...)
		i /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}
