// Package runtime owns the live side of the relay: the room registry,
// the per-connection session and the broadcast fan-out. It contains no
// academic domain logic.
package runtime

import (
	"sync"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
)

type memberSet map[contract.Member]struct{}

// Registry is the single source of truth for "who is in which room".
// Membership is per-connection, not per-user: two tabs of the same user
// are two independent members. Connection handlers run on separate
// goroutines, so every mutation is mutex-guarded.
type Registry struct {
	mu    sync.RWMutex
	rooms map[chat.RoomID]memberSet
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[chat.RoomID]memberSet)}
}

// Join inserts a member into the room's set, creating the room on
// first join. Duplicate joins are no-ops (set semantics).
func (r *Registry) Join(room chat.RoomID, m contract.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(memberSet)
	}
	r.rooms[room][m] = struct{}{}
}

// Leave removes a member. A room whose last member left is deleted
// entirely so empty rooms never linger in memory.
func (r *Registry) Leave(room chat.RoomID, m contract.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, m)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// Members returns a snapshot of the room's membership. Broadcasts
// iterate the snapshot, so a concurrent leave can never crash an
// in-flight fan-out; a member joining mid-broadcast may or may not
// receive that event.
func (r *Registry) Members(room chat.RoomID) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Member, 0, len(members))
	for m := range members {
		snapshot = append(snapshot, m)
	}
	return snapshot
}

// Count reports the room's current membership; zero means the room is
// absent.
func (r *Registry) Count(room chat.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Rooms reports how many rooms currently exist.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Each visits a snapshot of every tracked member across all rooms. The
// liveness sweep uses it so termination (which re-enters Leave) never
// runs under the registry lock.
func (r *Registry) Each(fn func(m contract.Member)) {
	r.mu.RLock()
	all := make([]contract.Member, 0, len(r.rooms))
	for _, members := range r.rooms {
		for m := range members {
			all = append(all, m)
		}
	}
	r.mu.RUnlock()

	for _, m := range all {
		fn(m)
	}
}
