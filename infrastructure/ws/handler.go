// Package ws is the websocket transport of the relay: handshake,
// per-connection read loop and the close path.
package ws

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/observability"
	"github.com/batsdk/wowclass-enlace/runtime"
	"github.com/batsdk/wowclass-enlace/services"
	"github.com/gorilla/websocket"
)

// Handshake rejection reasons, sent with close code 1008.
const (
	ReasonMissingParams = "Missing required parameters"
	ReasonNoToken       = "Unauthorized: No token"
	ReasonInvalidToken  = "Unauthorized: Invalid token"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The credential is the cookie, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests at the chat endpoint and drives one
// session per connection until it closes.
type Handler struct {
	verifier contract.TokenVerifier
	service  services.IChatService
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewHandler(verifier contract.TokenVerifier, service services.IChatService,
	monitor *observability.Monitor, log *slog.Logger) *Handler {
	return &Handler{verifier: verifier, service: service, monitor: monitor, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The token cookie rides on the upgrade request; grab it before the
	// hijack.
	token := auth.TokenFromRequest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("websocket upgrade failed", "error", err)
		return
	}

	q := r.URL.Query()
	classID := q.Get("classId")
	userID := q.Get("userId")
	userName := q.Get("userName")
	if userName == "" {
		userName = "Unknown"
	}

	h.log.Info("connection attempt",
		"class_id", classID, "user_id", userID, "user_name", userName)

	// Handshake gate: both parameters and a verifiable credential are
	// required before the connection ever touches the registry.
	if classID == "" || userID == "" {
		h.reject(conn, ReasonMissingParams, classID, userID)
		return
	}
	if token == "" {
		h.reject(conn, ReasonNoToken, classID, userID)
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		h.reject(conn, ReasonInvalidToken, classID, userID)
		return
	}

	room := chat.RoomID(classID)
	sess := runtime.NewSession(conn, room, userID, userName, identity, func(s *runtime.Session) {
		// The one cleanup routine: runs synchronously inside whatever
		// triggered the close (read error, reaper, shutdown) so the next
		// broadcast iteration no longer sees the member.
		h.service.Leave(room, s)
	}, h.log)
	sess.Authorize()

	h.service.Join(room, sess)
	sess.Open()

	if frame, err := chat.EncodeConnectionFrame(chat.ConnectionStatus{
		Status:  "connected",
		Message: "Connected to class chat",
	}); err == nil {
		_ = sess.SendRaw(frame)
	}

	h.readLoop(sess)
}

// reject closes an unauthorized connection with a policy-violation code
// without registering it anywhere.
func (h *Handler) reject(conn *websocket.Conn, reason, classID, userID string) {
	h.log.Warn("connection rejected",
		"reason", reason, "class_id", classID, "user_id", userID)
	h.monitor.HandshakeFailed()
	runtime.RejectPolicy(conn, reason)
}

// readLoop parses and dispatches inbound frames until the transport
// errors out, then runs the session's close path.
func (h *Handler) readLoop(sess *runtime.Session) {
	defer sess.Close("read loop finished")

	for {
		data, err := sess.NextFrame()
		if err != nil {
			h.logReadEnd(sess, err)
			return
		}

		frame, err := chat.DecodeFrame(data)
		if err != nil {
			// Malformed frames are dropped silently: chat is
			// best-effort and one bad frame must not kill the session.
			h.log.Debug("dropping malformed frame",
				"class_id", sess.Room(), "user_id", sess.UserID(),
				"error", err, "sample", sample(data))
			continue
		}

		switch frame.Type {
		case chat.EventMessage:
			h.handleMessage(sess, frame)
		case chat.EventTyping:
			h.handleTyping(sess, frame)
		default:
			// connection/history never originate client-side.
		}
	}
}

func (h *Handler) handleMessage(sess *runtime.Session, frame chat.Frame) {
	msg, err := chat.DecodeMessage(frame.Payload)
	if err != nil {
		h.log.Debug("dropping invalid message payload",
			"class_id", sess.Room(), "user_id", sess.UserID(), "error", err)
		return
	}

	// The sender identity is the connection's, never the payload's: a
	// connected client cannot speak as someone else.
	msg.ClassID = string(sess.Room())
	msg.SenderID = sess.UserID()
	msg.SenderName = sess.UserName()

	if err := h.service.RelayMessage(sess.Room(), msg); err != nil {
		h.log.Error("message relay failed",
			"class_id", sess.Room(), "user_id", sess.UserID(), "error", err)
	}
}

func (h *Handler) handleTyping(sess *runtime.Session, frame chat.Frame) {
	if _, err := chat.DecodeTyping(frame.Payload); err != nil {
		h.log.Debug("dropping invalid typing payload",
			"class_id", sess.Room(), "user_id", sess.UserID(), "error", err)
		return
	}

	sig := chat.TypingSignal{UserID: sess.UserID(), UserName: sess.UserName()}
	if err := h.service.RelayTyping(sess.Room(), sig, sess); err != nil {
		h.log.Error("typing relay failed",
			"class_id", sess.Room(), "user_id", sess.UserID(), "error", err)
	}
}

func (h *Handler) logReadEnd(sess *runtime.Session, err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		h.log.Info("peer closed",
			"class_id", sess.Room(), "user_id", sess.UserID())
	default:
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			h.log.Info("read timeout",
				"class_id", sess.Room(), "user_id", sess.UserID())
			return
		}
		h.log.Info("read error",
			"class_id", sess.Room(), "user_id", sess.UserID(), "error", err)
	}
}

func sample(data []byte) string {
	const max = 256
	if len(data) > max {
		data = data[:max]
	}
	return fmt.Sprintf("%q", data)
}
