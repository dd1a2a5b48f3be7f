package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateflow/estateflow/internal/domain/notification"
)

const notificationColumns = `id, notification_id, recipient, role, event, payload, status, retry_count, max_retries, last_error, created_at, sent_at`

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications
		(notification_id, recipient, role, event, payload, status, retry_count, max_retries, last_error, created_at, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, n.NotificationID, n.Recipient, n.Role, n.Event, n.Payload, n.Status, n.RetryCount, n.MaxRetries, n.LastError, n.CreatedAt, n.SentAt)
	return err
}

func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE status=$1 ORDER BY created_at ASC LIMIT $2
	`, notification.StatusPending, limit)
}

func (r *NotificationRepository) ListRetryable(ctx context.Context, limit int) ([]*notification.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE status=$1 AND retry_count < max_retries
		ORDER BY created_at ASC LIMIT $2
	`, notification.StatusFailed, limit)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE recipient=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, recipient, limit, offset)
}

func (r *NotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status=$1, retry_count=$2, last_error=$3, sent_at=$4
		WHERE notification_id=$5
	`, n.Status, n.RetryCount, n.LastError, n.SentAt, n.NotificationID)
	return err
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	if err := row.Scan(&n.ID, &n.NotificationID, &n.Recipient, &n.Role, &n.Event, &n.Payload, &n.Status, &n.RetryCount, &n.MaxRetries, &n.LastError, &n.CreatedAt, &n.SentAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
