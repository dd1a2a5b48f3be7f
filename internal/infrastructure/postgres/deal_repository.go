package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/deal"
)

const dealColumns = `id, deal_id, asset_id, buyer_id, owner_id, session_id, offer_price, final_price, deposit_payment, status, contract_id, created_at, updated_at`

// DealRepository implements deal.Repository.
type DealRepository struct {
	pool *pgxpool.Pool
}

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

func (r *DealRepository) Create(ctx context.Context, d *deal.Deal) error {
	var depositData []byte
	if d.Deposit != nil {
		var err error
		depositData, err = json.Marshal(d.Deposit)
		if err != nil {
			return err
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deals
		(deal_id, asset_id, buyer_id, owner_id, session_id, offer_price, final_price, deposit_payment, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, d.DealID, d.AssetID, d.BuyerID, d.OwnerID, d.SessionID, d.OfferPrice, d.FinalPrice, depositData, d.Status, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err, "deals_session_id_key") {
		return deal.ErrDuplicateSession
	}
	return err
}

func (r *DealRepository) GetByID(ctx context.Context, dealID uuid.UUID) (*deal.Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+` FROM deals WHERE deal_id=$1
	`, dealID)
	return scanDeal(row)
}

func (r *DealRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) (*deal.Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+` FROM deals WHERE session_id=$1
	`, sessionID)
	return scanDeal(row)
}

func (r *DealRepository) FindByParties(ctx context.Context, assetID, buyerID, ownerID uuid.UUID) (*deal.Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+` FROM deals
		WHERE asset_id=$1 AND buyer_id=$2 AND owner_id=$3
		ORDER BY created_at DESC LIMIT 1
	`, assetID, buyerID, ownerID)
	return scanDeal(row)
}

func (r *DealRepository) List(ctx context.Context, filter deal.Filter, limit, offset int) ([]*deal.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
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
	var deals []*deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *DealRepository) SetDeposit(ctx context.Context, dealID uuid.UUID, deposit *deal.Payment) (bool, error) {
	depositData, err := json.Marshal(deposit)
	if err != nil {
		return false, err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE deals SET deposit_payment=$1, updated_at=NOW()
		WHERE deal_id=$2 AND deposit_payment IS NULL
	`, depositData, dealID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *DealRepository) UpdateStatusFrom(ctx context.Context, dealID uuid.UUID, from, to deal.Status) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE deals SET status=$1, updated_at=NOW() WHERE deal_id=$2 AND status=$3
	`, to, dealID, from)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *DealRepository) SetContract(ctx context.Context, dealID, contractID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE deals SET contract_id=$1, updated_at=NOW() WHERE deal_id=$2
	`, contractID, dealID)
	return err
}

func scanDeal(row pgx.Row) (*deal.Deal, error) {
	var d deal.Deal
	var deposit []byte
	if err := row.Scan(&d.ID, &d.DealID, &d.AssetID, &d.BuyerID, &d.OwnerID, &d.SessionID, &d.OfferPrice, &d.FinalPrice, &deposit, &d.Status, &d.ContractID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(deposit) > 0 {
		var p deal.Payment
		if err := json.Unmarshal(deposit, &p); err != nil {
			return nil, err
		}
		d.Deposit = &p
	}
	return &d, nil
}
