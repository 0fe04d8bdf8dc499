package runtime

import (
	"sync"

	"github.com/batsdk/wowclass-enlace/domain/chat"
)

// fakeMember records what the relay and registry do to it.
type fakeMember struct {
	mu         sync.Mutex
	room       chat.RoomID
	userID     string
	ready      bool
	alive      bool
	pings      int
	terminated bool
	frames     [][]byte
	sendErr    error
}

func newFakeMember(room chat.RoomID, userID string) *fakeMember {
	return &fakeMember{room: room, userID: userID, ready: true, alive: true}
}

func (f *fakeMember) Room() chat.RoomID { return f.room }
func (f *fakeMember) UserID() string    { return f.userID }
func (f *fakeMember) UserName() string  { return f.userID }

func (f *fakeMember) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeMember) SendRaw(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeMember) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeMember) ClearAlive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = false
}

func (f *fakeMember) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeMember) Terminate(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	f.ready = false
}

func (f *fakeMember) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}
