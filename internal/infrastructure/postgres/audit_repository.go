package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log
		(audit_id, entity_type, entity_id, action, actor, reason, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.AuditID, entry.EntityType, entry.EntityID, entry.Action, entry.Actor, entry.Reason, entry.Signature, entry.CreatedAt)
	return err
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string, limit, offset int) ([]*audit.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, audit_id, entity_type, entity_id, action, actor, reason, signature, created_at
		FROM audit_log
		WHERE entity_type=$1 AND entity_id=$2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAuditEntry(row pgx.Row) (*audit.Entry, error) {
	var e audit.Entry
	var reason *string
	if err := row.Scan(&e.ID, &e.AuditID, &e.EntityType, &e.EntityID, &e.Action, &e.Actor, &reason, &e.Signature, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if reason != nil {
		e.Reason = *reason
	}
	return &e, nil
}
