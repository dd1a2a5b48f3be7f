package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/party"
)

// Status represents the delivery status of a notification.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Event names a workflow occurrence worth telling a party about.
type Event string

const (
	EventOfferReceived        Event = "offer_received"
	EventOfferUpdated         Event = "offer_updated"
	EventNegotiationDecided   Event = "negotiation_decided"
	EventDraftRequested       Event = "draft_requested"
	EventDraftGenerated       Event = "draft_generated"
	EventDraftSent            Event = "draft_sent"
	EventReservationConfirmed Event = "reservation_confirmed"
	EventDealAccepted         Event = "deal_accepted"
	EventDealRejected         Event = "deal_rejected"
	EventContractSigned       Event = "contract_signed"
	EventContractCompleted    Event = "contract_completed"
	EventInstallmentPaid      Event = "installment_paid"
	EventCancelled            Event = "cancelled"
)

var ErrCannotRetry = errors.New("cannot retry notification")

// Notification is an outbox row written after the authoritative state
// change commits and delivered by a separate dispatcher. Delivery failure
// never reaches the workflow caller.
type Notification struct {
	ID             int64           `json:"id"`
	NotificationID uuid.UUID       `json:"notificationId"`
	Recipient      uuid.UUID       `json:"recipient"`
	Role           party.Role      `json:"role"`
	Event          Event           `json:"event"`
	Payload        json.RawMessage `json:"payload"`
	Status         Status          `json:"status"`
	RetryCount     int             `json:"retryCount"`
	MaxRetries     int             `json:"maxRetries"`
	LastError      *string         `json:"lastError,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	SentAt         *time.Time      `json:"sentAt,omitempty"`
}

// New creates a pending notification for a recipient.
func New(recipient uuid.UUID, role party.Role, event Event, payload json.RawMessage) *Notification {
	return &Notification{
		NotificationID: uuid.New(),
		Recipient:      recipient,
		Role:           role,
		Event:          event,
		Payload:        payload,
		Status:         StatusPending,
		MaxRetries:     3,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkSent marks the notification as delivered.
func (n *Notification) MarkSent() {
	n.Status = StatusSent
	now := time.Now().UTC()
	n.SentAt = &now
}

// MarkFailed records a failed delivery attempt.
func (n *Notification) MarkFailed(errMsg string) {
	n.Status = StatusFailed
	n.LastError = &errMsg
	n.RetryCount++
}

// CanRetry reports whether the dispatcher should try again.
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries
}

// ResetForRetry requeues a failed notification.
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrCannotRetry
	}
	n.Status = StatusPending
	return nil
}

// Message is the wire shape pushed to a connected client.
type Message struct {
	Event     Event           `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage builds the delivery message for a notification.
func NewMessage(n *Notification) *Message {
	return &Message{Event: n.Event, Payload: n.Payload, Timestamp: time.Now().UTC()}
}
