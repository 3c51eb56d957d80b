// Package queue defines message payloads exchanged over the message broker
// plus the publisher and the audit-log consumer.
package queue

// Event kinds carried in UserEvent.Kind.
const (
	UserRegistered = "user.registered"
	UserTrashed    = "user.trashed"
	UserDeleted    = "user.deleted"
)

// UserEvent is published whenever an account changes in a way downstream
// systems care about. It carries enough for consumers to log, notify, or
// trigger analytics without querying the primary database.
type UserEvent struct {
	Kind       string `json:"kind"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
