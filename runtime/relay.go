package runtime

import (
	"log/slog"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
)

// Relay fans one serialized event out to every ready member of a room.
// It never mutates membership: a failed or non-ready member is skipped
// and left for the close path to remove.
type Relay struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewRelay(registry contract.IRegistry, log *slog.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

// Broadcast delivers frame to every ready member of room, skipping
// except when non-nil. The frame is serialized by the caller exactly
// once; delivery is best-effort at-most-once per member.
func (r *Relay) Broadcast(room chat.RoomID, frame []byte, except contract.Member) {
	for _, m := range r.registry.Members(room) {
		if m == except {
			continue
		}
		if !m.Ready() {
			continue
		}
		if err := m.SendRaw(frame); err != nil {
			r.log.Warn("fan-out write failed",
				"class_id", room, "user_id", m.UserID(), "error", err)
		}
	}
}
