package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the audited aggregate.
type EntityType string

const (
	EntityNegotiation EntityType = "negotiation"
	EntityDraft       EntityType = "draft"
	EntityDeal        EntityType = "deal"
	EntityContract    EntityType = "contract"
	EntityAsset       EntityType = "asset"
)

// Action identifies what happened.
type Action string

const (
	ActionCreate   Action = "create"
	ActionApprove  Action = "approve"
	ActionDecline  Action = "decline"
	ActionAdvance  Action = "advance"
	ActionReserve  Action = "reserve"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionSign     Action = "sign"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Entry is one signed audit record of a workflow transition.
type Entry struct {
	ID         int64      `json:"id"`
	AuditID    uuid.UUID  `json:"auditId"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Action     Action     `json:"action"`
	Actor      string     `json:"actor"`
	Reason     string     `json:"reason,omitempty"`
	Signature  []byte     `json:"signature,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Repository defines audit persistence.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType EntityType, entityID string, limit, offset int) ([]*Entry, error)
}
