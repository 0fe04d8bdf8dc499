package chat

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EventType discriminates the wire envelope.
type EventType string

const (
	EventMessage    EventType = "message"
	EventTyping     EventType = "typing"
	EventConnection EventType = "connection"
	// EventHistory is reserved; the relay never emits it.
	EventHistory EventType = "history"
)

// Frame is the JSON envelope used in both directions:
// {"type": "...", "payload": {...}}.
type Frame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var validate = validator.New()

// DecodeFrame parses an inbound frame. Callers treat any error as a
// malformed frame and drop it without closing the connection.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decoding frame: %w", err)
	}
	switch f.Type {
	case EventMessage, EventTyping, EventConnection, EventHistory:
	default:
		return Frame{}, fmt.Errorf("frame type %q: unknown", f.Type)
	}
	return f, nil
}

// DecodeMessage parses and validates a message payload.
func DecodeMessage(payload json.RawMessage) (Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message payload: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return Message{}, fmt.Errorf("validating message payload: %w", err)
	}
	return m, nil
}

// DecodeTyping parses a typing payload.
func DecodeTyping(payload json.RawMessage) (TypingSignal, error) {
	var s TypingSignal
	if err := json.Unmarshal(payload, &s); err != nil {
		return TypingSignal{}, fmt.Errorf("decoding typing payload: %w", err)
	}
	return s, nil
}

// DecodeConnection parses a connection payload.
func DecodeConnection(payload json.RawMessage) (ConnectionStatus, error) {
	var c ConnectionStatus
	if err := json.Unmarshal(payload, &c); err != nil {
		return ConnectionStatus{}, fmt.Errorf("decoding connection payload: %w", err)
	}
	return c, nil
}

// EncodeFrame serializes an envelope around the given payload. Broadcast
// paths call this exactly once per event, never once per recipient.
func EncodeFrame(kind EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	return json.Marshal(Frame{Type: kind, Payload: raw})
}

// EncodeMessageFrame wraps a message event.
func EncodeMessageFrame(m Message) ([]byte, error) {
	return EncodeFrame(EventMessage, m)
}

// EncodeTypingFrame wraps a typing event.
func EncodeTypingFrame(s TypingSignal) ([]byte, error) {
	return EncodeFrame(EventTyping, s)
}

// EncodeConnectionFrame wraps the join confirmation.
func EncodeConnectionFrame(c ConnectionStatus) ([]byte, error) {
	return EncodeFrame(EventConnection, c)
}
