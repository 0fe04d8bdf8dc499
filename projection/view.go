// Package projection builds the local chat view from observed events.
// Handles ordering, deduplication and typing presence. Does not emit
// events or talk to the transport beyond the send path it composes.
package projection

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/errors"
	"github.com/batsdk/wowclass-enlace/mirror"
)

// DefaultTypingTTL is how long a typing signal keeps its sender in the
// typing set. A repeated signal resets the window, it never stacks.
const DefaultTypingTTL = 3 * time.Second

// Transport is the send half the view composes. *client.Agent
// satisfies it.
type Transport interface {
	SendMessage(classID, userID, userName, content string) (chat.Message, error)
	SendTyping(classID, userID, userName string) error
}

// View is one user's live picture of a class room: the deduplicated
// message list, the connection flag and the set of users currently
// typing. Wire its Handle* methods into an agent's handler lists.
type View struct {
	room      chat.RoomID
	userID    string
	userName  string
	store     mirror.IStore
	transport Transport
	typingTTL time.Duration
	log       *slog.Logger

	mu        sync.Mutex
	messages  []mirror.Record
	seen      map[string]struct{}
	pending   []int
	typing    map[string]*time.Timer
	connected bool
}

type Option func(*View)

// WithTypingTTL overrides the typing decay window.
func WithTypingTTL(ttl time.Duration) Option {
	return func(v *View) { v.typingTTL = ttl }
}

func NewView(room chat.RoomID, userID, userName string, store mirror.IStore,
	transport Transport, log *slog.Logger, opts ...Option) *View {
	v := &View{
		room:      room,
		userID:    userID,
		userName:  userName,
		store:     store,
		transport: transport,
		typingTTL: DefaultTypingTTL,
		log:       log,
		seen:      make(map[string]struct{}),
		typing:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Restore seeds the in-memory list from the durable mirror, typically
// once before connecting.
func (v *View) Restore() error {
	records, err := v.store.MessagesByRoom(v.room)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, rec := range records {
		if _, ok := v.seen[rec.ID]; ok {
			continue
		}
		v.seen[rec.ID] = struct{}{}
		v.messages = append(v.messages, rec)
	}
	return nil
}

// HandleMessage folds one relayed message into the view. Duplicates by
// id are dropped. An echo of this user's own send replaces the matching
// optimistic record in place, so the list keeps its order.
func (v *View) HandleMessage(msg chat.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[msg.ID]; ok {
		return
	}
	v.seen[msg.ID] = struct{}{}
	rec := mirror.Record{Message: msg, Synced: true}

	if idx, ok := v.takePending(msg); ok {
		v.messages[idx] = rec
	} else {
		v.messages = append(v.messages, rec)
	}

	if err := v.store.AddMessage(msg); err != nil {
		v.log.Error("mirroring received message failed", "message_id", msg.ID, "error", err)
		return
	}
	if err := v.store.MarkSynced(msg.ID); err != nil {
		v.log.Error("marking message synced failed", "message_id", msg.ID, "error", err)
	}
}

// takePending matches an own-message echo against the oldest optimistic
// record with the same content and consumes it.
func (v *View) takePending(msg chat.Message) (int, bool) {
	if msg.SenderID != v.userID {
		return 0, false
	}
	for i, idx := range v.pending {
		if v.messages[idx].Content == msg.Content {
			v.pending = append(v.pending[:i], v.pending[i+1:]...)
			return idx, true
		}
	}
	return 0, false
}

// Send posts a message and inserts the optimistic local record. The
// mirror copy stays synced=false until the relay echoes the send back.
func (v *View) Send(content string) error {
	v.mu.Lock()
	connected := v.connected
	v.mu.Unlock()
	if !connected {
		v.log.Error("cannot send, transport is not connected", "class_id", v.room)
		return errors.ErrNotConnected
	}

	if _, err := v.transport.SendMessage(string(v.room), v.userID, v.userName, content); err != nil {
		return err
	}

	local := chat.Message{
		ID:         fmt.Sprintf("local-%d", time.Now().UnixMilli()),
		ClassID:    string(v.room),
		SenderID:   v.userID,
		SenderName: v.userName,
		Content:    content,
		CreatedAt:  chat.Timestamp(time.Now()),
	}

	v.mu.Lock()
	v.seen[local.ID] = struct{}{}
	v.messages = append(v.messages, mirror.Record{Message: local})
	v.pending = append(v.pending, len(v.messages)-1)
	v.mu.Unlock()

	if err := v.store.AddMessage(local); err != nil {
		v.log.Error("mirroring local message failed", "message_id", local.ID, "error", err)
	}
	return nil
}

// Typing signals the room that this user is composing.
func (v *View) Typing() error {
	v.mu.Lock()
	connected := v.connected
	v.mu.Unlock()
	if !connected {
		return errors.ErrNotConnected
	}
	return v.transport.SendTyping(string(v.room), v.userID, v.userName)
}

// HandleTyping marks a peer as typing for the decay window. Signals
// about this user's own typing are ignored.
func (v *View) HandleTyping(sig chat.TypingSignal) {
	if sig.UserID == v.userID {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if timer, ok := v.typing[sig.UserID]; ok {
		timer.Reset(v.typingTTL)
		return
	}
	userID := sig.UserID
	v.typing[userID] = time.AfterFunc(v.typingTTL, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.typing, userID)
	})
}

// HandleStatus tracks the transport's connected flag.
func (v *View) HandleStatus(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = status == "connected"
}

func (v *View) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// Messages returns a snapshot of the current list in arrival order.
func (v *View) Messages() []mirror.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]mirror.Record(nil), v.messages...)
}

// TypingUsers returns the ids currently marked as typing, sorted for
// stable rendering.
func (v *View) TypingUsers() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	users := make([]string, 0, len(v.typing))
	for userID := range v.typing {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
