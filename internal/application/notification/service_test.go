package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateflow/estateflow/internal/domain/notification"
	"github.com/estateflow/estateflow/internal/domain/party"
)

type fakeRepo struct {
	rows []*notification.Notification
}

func (r *fakeRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.rows = append(r.rows, n)
	return nil
}

func (r *fakeRepo) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.rows {
		if n.Status == notification.StatusPending && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListRetryable(ctx context.Context, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.rows {
		if n.CanRetry() && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByRecipient(ctx context.Context, recipient uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.rows {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, n *notification.Notification) error {
	return nil
}

type fakeHub struct {
	err       error
	delivered []string
}

func (h *fakeHub) Deliver(recipient string, msg *notification.Message) error {
	if h.err != nil {
		return h.err
	}
	h.delivered = append(h.delivered, recipient)
	return nil
}

func TestEmitEnqueuesPending(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeHub{}, zerolog.Nop())
	recipient := uuid.New()

	svc.Emit(context.Background(), recipient, party.RoleOwner, notification.EventOfferReceived, map[string]string{"assetId": "a"})

	require.Len(t, repo.rows, 1)
	n := repo.rows[0]
	assert.Equal(t, notification.StatusPending, n.Status)
	assert.Equal(t, recipient, n.Recipient)
	assert.JSONEq(t, `{"assetId":"a"}`, string(n.Payload))
}

func TestDispatchPendingMarksSent(t *testing.T) {
	repo := &fakeRepo{}
	hub := &fakeHub{}
	svc := NewService(repo, hub, zerolog.Nop())
	recipient := uuid.New()
	svc.Emit(context.Background(), recipient, party.RoleBuyer, notification.EventDealAccepted, nil)

	processed, err := svc.DispatchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, notification.StatusSent, repo.rows[0].Status)
	assert.Equal(t, []string{recipient.String()}, hub.delivered)
}

func TestDispatchPendingMarksFailed(t *testing.T) {
	repo := &fakeRepo{}
	hub := &fakeHub{err: errors.New("no clients connected")}
	svc := NewService(repo, hub, zerolog.Nop())
	svc.Emit(context.Background(), uuid.New(), party.RoleBuyer, notification.EventDealAccepted, nil)

	_, err := svc.DispatchPending(context.Background(), 10)
	require.NoError(t, err)
	n := repo.rows[0]
	assert.Equal(t, notification.StatusFailed, n.Status)
	assert.Equal(t, 1, n.RetryCount)
	require.NotNil(t, n.LastError)
	assert.Equal(t, "no clients connected", *n.LastError)
}

func TestDispatchRetryableRedelivers(t *testing.T) {
	repo := &fakeRepo{}
	hub := &fakeHub{err: errors.New("offline")}
	svc := NewService(repo, hub, zerolog.Nop())
	svc.Emit(context.Background(), uuid.New(), party.RoleBuyer, notification.EventDealAccepted, nil)

	_, err := svc.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	// The client reconnects; the retry sweep delivers the failed row.
	hub.err = nil
	count, err := svc.DispatchRetryable(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, notification.StatusSent, repo.rows[0].Status)
}

func TestDispatchRetryableGivesUpAfterMaxRetries(t *testing.T) {
	repo := &fakeRepo{}
	hub := &fakeHub{err: errors.New("offline")}
	svc := NewService(repo, hub, zerolog.Nop())
	svc.Emit(context.Background(), uuid.New(), party.RoleBuyer, notification.EventDealAccepted, nil)

	_, err := svc.DispatchPending(context.Background(), 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		if _, err := svc.DispatchRetryable(context.Background(), 10); err != nil {
			t.Fatalf("dispatch retryable: %v", err)
		}
	}

	n := repo.rows[0]
	assert.Equal(t, notification.StatusFailed, n.Status)
	assert.Equal(t, n.MaxRetries, n.RetryCount)
	assert.False(t, n.CanRetry())
}
