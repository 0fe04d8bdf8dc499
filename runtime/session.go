package runtime

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/gorilla/websocket"
)

// Session states. A session that fails the handshake goes straight to
// closed and is never registered.
const (
	StateConnecting int32 = iota
	StateAuthorized
	StateOpen
	StateClosed
)

const controlWriteTimeout = 5 * time.Second

// Session is one live websocket connection bound to a single room and
// user identity for its whole lifetime. Writes are serialized with a
// mutex; control frames go through WriteControl which gorilla allows
// concurrently with data writes.
type Session struct {
	conn     *websocket.Conn
	room     chat.RoomID
	userID   string
	userName string
	identity contract.Identity

	state atomic.Int32
	alive atomic.Bool

	writeMu   sync.Mutex
	closeOnce sync.Once
	onClose   func(*Session)

	log *slog.Logger
}

// NewSession wraps an upgraded connection. onClose is the single
// cleanup routine; it runs exactly once whatever triggers the close
// (read error, transport close, liveness termination).
func NewSession(conn *websocket.Conn, room chat.RoomID, userID, userName string,
	identity contract.Identity, onClose func(*Session), log *slog.Logger) *Session {
	s := &Session{
		conn:     conn,
		room:     room,
		userID:   userID,
		userName: userName,
		identity: identity,
		onClose:  onClose,
		log:      log,
	}
	s.state.Store(StateConnecting)
	conn.SetPongHandler(func(string) error {
		s.alive.Store(true)
		return nil
	})
	return s
}

func (s *Session) Room() chat.RoomID           { return s.room }
func (s *Session) UserID() string              { return s.userID }
func (s *Session) UserName() string            { return s.userName }
func (s *Session) Identity() contract.Identity { return s.identity }

// Authorize marks the credential check as passed.
func (s *Session) Authorize() {
	s.state.CompareAndSwap(StateConnecting, StateAuthorized)
}

// Open marks the session registered and broadcast-ready.
func (s *Session) Open() {
	if s.state.CompareAndSwap(StateAuthorized, StateOpen) {
		s.alive.Store(true)
	}
}

// Ready reports whether the transport currently accepts writes.
func (s *Session) Ready() bool {
	return s.state.Load() == StateOpen
}

// SendRaw writes one pre-serialized frame.
func (s *Session) SendRaw(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) Alive() bool { return s.alive.Load() }

func (s *Session) ClearAlive() { s.alive.Store(false) }

// Ping sends a liveness probe. The pong handler restores the flag.
func (s *Session) Ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWriteTimeout))
}

// NextFrame blocks for the next text or binary frame, skipping other
// message kinds. Any transport error ends the session's read loop.
func (s *Session) NextFrame() ([]byte, error) {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

// Close runs the single cleanup routine: deregistration first, so an
// in-flight broadcast cannot pick the session up again, then the
// transport teardown.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(StateClosed)
		if s.onClose != nil {
			s.onClose(s)
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWriteTimeout))
		_ = s.conn.Close()
		s.log.Debug("session closed", "class_id", s.room, "user_id", s.userID, "reason", reason)
	})
}

// Terminate tears the transport down abruptly. Used by the liveness
// sweep; other clients cannot distinguish it from a normal disconnect.
func (s *Session) Terminate(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(StateClosed)
		if s.onClose != nil {
			s.onClose(s)
		}
		_ = s.conn.Close()
		s.log.Info("session terminated", "class_id", s.room, "user_id", s.userID, "reason", reason)
	})
}

// RejectPolicy closes a connection that never passed the handshake with
// close code 1008 and the given reason. No registry interaction.
func RejectPolicy(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWriteTimeout))
	_ = conn.Close()
}
