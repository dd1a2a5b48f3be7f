package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/party"
)

// PartyRepository implements party.Directory.
type PartyRepository struct {
	pool *pgxpool.Pool
}

func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

func (r *PartyRepository) GetByID(ctx context.Context, partyID uuid.UUID) (*party.Party, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, party_id, name, role, created_at FROM parties WHERE party_id=$1
	`, partyID)
	var p party.Party
	if err := row.Scan(&p.ID, &p.PartyID, &p.Name, &p.Role, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PartyRepository) RoleOf(ctx context.Context, partyID uuid.UUID) (party.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT role FROM parties WHERE party_id=$1`, partyID)
	var role party.Role
	if err := row.Scan(&role); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return role, nil
}
