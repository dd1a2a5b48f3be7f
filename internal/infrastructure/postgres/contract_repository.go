package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/contract"
)

const contractColumns = `id, contract_id, deal_id, asset_id, buyer_id, owner_id, total_price, payment_plan, signed, listing_status, status, created_at, updated_at`

// ContractRepository implements contract.Repository.
type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	plan, err := json.Marshal(c.Plan)
	if err != nil {
		return err
	}
	signed, err := json.Marshal(c.Signed)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO contracts
		(contract_id, deal_id, asset_id, buyer_id, owner_id, total_price, payment_plan, signed, listing_status, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ContractID, c.DealID, c.AssetID, c.BuyerID, c.OwnerID, c.TotalPrice, plan, signed, c.Listing, c.Status, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ContractRepository) GetByID(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+contractColumns+` FROM contracts WHERE contract_id=$1
	`, contractID)
	return scanContract(row)
}

func (r *ContractRepository) GetByDeal(ctx context.Context, dealID uuid.UUID) (*contract.Contract, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+contractColumns+` FROM contracts WHERE deal_id=$1
	`, dealID)
	return scanContract(row)
}

func (r *ContractRepository) List(ctx context.Context, filter contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
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
	var contracts []*contract.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (r *ContractRepository) SetSignature(ctx context.Context, contractID uuid.UUID, kind contract.SignatureKind) (bool, error) {
	slot := "buyer"
	if kind == contract.SignatureSeller {
		slot = "seller"
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE contracts
		SET signed = jsonb_set(signed, ARRAY[$1::text], 'true'::jsonb), updated_at=NOW()
		WHERE contract_id=$2 AND NOT (signed->>$1)::boolean
	`, slot, contractID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *ContractRepository) MarkEntryPaid(ctx context.Context, contractID uuid.UUID, index int) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE contracts
		SET payment_plan = jsonb_set(payment_plan, ARRAY[($1::int)::text, 'status'], '"paid"'::jsonb), updated_at=NOW()
		WHERE contract_id=$2
		AND jsonb_array_length(payment_plan) > $1::int
		AND payment_plan->($1::int)->>'status' <> 'paid'
	`, index, contractID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *ContractRepository) MarkEntriesOverdue(ctx context.Context, contractID uuid.UUID, now time.Time) (int, error) {
	c, err := r.GetByID(ctx, contractID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, nil
	}
	changed := 0
	for i, e := range c.Plan {
		if e.Status != contract.EntryPending || !e.DueDate.Before(now) {
			continue
		}
		// Conditional per entry: a payment landing on this entry between
		// the read above and this write wins, the flip is skipped.
		res, err := r.pool.Exec(ctx, `
			UPDATE contracts
			SET payment_plan = jsonb_set(payment_plan, ARRAY[($1::int)::text, 'status'], '"overdue"'::jsonb), updated_at=NOW()
			WHERE contract_id=$2
			AND payment_plan->($1::int)->>'status' = 'pending'
		`, i, contractID)
		if err != nil {
			return changed, err
		}
		if res.RowsAffected() > 0 {
			changed++
		}
	}
	return changed, nil
}

func (r *ContractRepository) UpdateStatusFrom(ctx context.Context, contractID uuid.UUID, from, to contract.Status) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status=$1, updated_at=NOW() WHERE contract_id=$2 AND status=$3
	`, to, contractID, from)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	var plan, signed []byte
	if err := row.Scan(&c.ID, &c.ContractID, &c.DealID, &c.AssetID, &c.BuyerID, &c.OwnerID, &c.TotalPrice, &plan, &signed, &c.Listing, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(plan, &c.Plan); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(signed, &c.Signed); err != nil {
		return nil, err
	}
	return &c, nil
}
