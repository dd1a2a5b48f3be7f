package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/asset"
)

// AssetRepository implements asset.Repository.
type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func (r *AssetRepository) GetByID(ctx context.Context, assetID uuid.UUID) (*asset.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, asset_id, owner_id, title, location, price, listing_status, availability_status, payment_policy, created_at, updated_at
		FROM assets WHERE asset_id=$1
	`, assetID)
	return scanAsset(row)
}

func (r *AssetRepository) SetAvailability(ctx context.Context, assetID uuid.UUID, availability asset.AvailabilityStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE assets SET availability_status=$1, updated_at=NOW() WHERE asset_id=$2
	`, availability, assetID)
	return err
}

func scanAsset(row pgx.Row) (*asset.Asset, error) {
	var a asset.Asset
	var policy []byte
	if err := row.Scan(&a.ID, &a.AssetID, &a.OwnerID, &a.Title, &a.Location, &a.Price, &a.Listing, &a.Availability, &policy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(policy) > 0 {
		var p asset.PaymentPolicy
		if err := json.Unmarshal(policy, &p); err != nil {
			return nil, err
		}
		a.Policy = &p
	}
	return &a, nil
}
