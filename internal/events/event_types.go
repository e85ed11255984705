package events

import (
	"time"

	"github.com/curadesk/support-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStateChanged EventType = "ticket_state_changed"
	EventCommentAdded       EventType = "comment_added"
	EventBundleStored       EventType = "bundle_stored"
)

// Event represents a domain event emitted by the ticket engine. Events feed
// the audit log; they carry ids and roles, never credential material.
type Event struct {
	Type        EventType   `json:"type"`
	TicketID    int64       `json:"ticket_id"`
	ActorUserID int64       `json:"actor_user_id"`
	ActorRole   domain.Role `json:"actor_role"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     any         `json:"payload,omitempty"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID int64 `json:"comment_id"`
}

// BundleStoredPayload payload.
type BundleStoredPayload struct {
	BundleID     int64 `json:"bundle_id"`
	OriginalSize int64 `json:"original_size"`
	EntryCount   int   `json:"entry_count"`
}
