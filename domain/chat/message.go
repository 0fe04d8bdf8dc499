// Package chat contains the wire-level concepts of the class chat relay.
// Payloads are immutable once decoded; the relay never persists them.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// RoomID identifies a broadcast scope. Rooms are keyed by the class
// identifier and exist only while at least one connection is joined.
type RoomID string

// Message is the chat event exchanged in both directions. The id is
// client-generated and only used for client-side deduplication; the
// server relays it untouched.
type Message struct {
	ID         string `json:"id" validate:"required"`
	ClassID    string `json:"classId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content" validate:"required"`
	CreatedAt  string `json:"createdAt"`
}

// NewMessage builds an outbound message stamped with the current time.
func NewMessage(classID, senderID, senderName, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		ClassID:    classID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  Timestamp(time.Now()),
	}
}

// TypingSignal is ephemeral: broadcast immediately and never stored.
// The server ignores the classId carried in the payload and uses the
// connection's bound room instead.
type TypingSignal struct {
	ClassID  string `json:"classId,omitempty"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// ConnectionStatus is sent once to a joining connection.
type ConnectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Timestamp renders t in the ISO-8601 form used on the wire.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp is lenient: an unparseable createdAt falls back to the
// zero time so a single odd payload cannot break chronological storage.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
