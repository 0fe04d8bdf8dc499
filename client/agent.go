// Package client is the Go counterpart of the browser chat client: it
// dials the relay, dispatches inbound frames to registered handlers and
// reconnects with a fixed backoff when the transport drops.
package client

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/errors"
	"github.com/gorilla/websocket"
)

// Status values delivered to status handlers.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Reconnect contract: fixed delay, bounded attempts, counter reset on
// every successful open.
const (
	DefaultMaxReconnects  = 5
	DefaultReconnectDelay = 3 * time.Second
)

type (
	MessageHandler func(chat.Message)
	TypingHandler  func(chat.TypingSignal)
	StatusHandler  func(status string)
)

// Agent is one client connection to a class room. Handlers registered
// before Connect survive every reconnect.
type Agent struct {
	endpoint string
	token    string

	maxReconnects  int
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	log            *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	attempts int
	closed   bool

	handlerMu sync.Mutex
	onMessage []MessageHandler
	onTyping  []TypingHandler
	onStatus  []StatusHandler
}

type Option func(*Agent)

// WithReconnect overrides the retry bound and the fixed delay between
// attempts.
func WithReconnect(maxAttempts int, delay time.Duration) Option {
	return func(a *Agent) {
		a.maxReconnects = maxAttempts
		a.reconnectDelay = delay
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(a *Agent) { a.dialer = d }
}

// NewAgent builds an agent for one class/user pair. baseURL is the
// relay's HTTP origin; the websocket scheme is derived from it.
func NewAgent(baseURL, classID, userID, userName, token string, log *slog.Logger, opts ...Option) (*Agent, error) {
	endpoint, err := DeriveEndpoint(baseURL, classID, userID, userName)
	if err != nil {
		return nil, err
	}
	a := &Agent{
		endpoint:       endpoint,
		token:          token,
		maxReconnects:  DefaultMaxReconnects,
		reconnectDelay: DefaultReconnectDelay,
		dialer:         websocket.DefaultDialer,
		log:            log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// DeriveEndpoint turns an http(s) origin into the chat websocket URL,
// ws for http and wss for https.
func DeriveEndpoint(baseURL, classID, userID, userName string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws/chat"
	q := url.Values{}
	q.Set("classId", classID)
	q.Set("userId", userID)
	q.Set("userName", userName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *Agent) OnMessage(h MessageHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.onMessage = append(a.onMessage, h)
}

func (a *Agent) OnTyping(h TypingHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.onTyping = append(a.onTyping, h)
}

// OnStatus receives transport-level connected/disconnected events.
func (a *Agent) OnStatus(h StatusHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.onStatus = append(a.onStatus, h)
}

// Connect dials the relay and starts the read loop. A successful open
// resets the reconnect counter.
func (a *Agent) Connect() error {
	header := http.Header{"Cookie": {auth.CookieName + "=" + a.token}}
	conn, _, err := a.dialer.Dial(a.endpoint, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", a.endpoint, err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = conn.Close()
		return errors.ErrNotConnected
	}
	a.conn = conn
	a.attempts = 0
	a.mu.Unlock()

	a.log.Info("connected", "endpoint", a.endpoint)
	a.notifyStatus(StatusConnected)
	go a.readLoop(conn)
	return nil
}

func (a *Agent) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil && !a.closed
}

// SendMessage posts a chat message to the room. The relay rewrites the
// sender fields from the connection identity, so only content matters
// beyond the generated id.
func (a *Agent) SendMessage(classID, userID, userName, content string) (chat.Message, error) {
	msg := chat.NewMessage(classID, userID, userName, content)
	frame, err := chat.EncodeMessageFrame(msg)
	if err != nil {
		return chat.Message{}, err
	}
	return msg, a.send(frame)
}

// SendTyping signals that this user is composing. A signal while
// disconnected is dropped without error.
func (a *Agent) SendTyping(classID, userID, userName string) error {
	frame, err := chat.EncodeTypingFrame(chat.TypingSignal{
		ClassID:  classID,
		UserID:   userID,
		UserName: userName,
	})
	if err != nil {
		return err
	}
	if err := a.send(frame); err != nil {
		if stderrors.Is(err, errors.ErrNotConnected) {
			return nil
		}
		return err
	}
	return nil
}

func (a *Agent) send(frame []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil || a.closed {
		return errors.ErrNotConnected
	}
	return a.conn.WriteMessage(websocket.TextMessage, frame)
}

// Disconnect closes the transport and disables reconnection.
func (a *Agent) Disconnect() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.closed = true
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			if a.conn == conn {
				a.conn = nil
			}
			closed := a.closed
			a.mu.Unlock()

			a.notifyStatus(StatusDisconnected)
			if !closed {
				a.log.Info("transport dropped", "error", err)
				a.scheduleReconnect()
			}
			return
		}
		a.dispatch(data)
	}
}

func (a *Agent) dispatch(data []byte) {
	frame, err := chat.DecodeFrame(data)
	if err != nil {
		a.log.Debug("dropping malformed frame", "error", err)
		return
	}
	switch frame.Type {
	case chat.EventMessage:
		msg, err := chat.DecodeMessage(frame.Payload)
		if err != nil {
			a.log.Debug("dropping invalid message payload", "error", err)
			return
		}
		for _, h := range a.messageHandlers() {
			h(msg)
		}
	case chat.EventTyping:
		sig, err := chat.DecodeTyping(frame.Payload)
		if err != nil {
			a.log.Debug("dropping invalid typing payload", "error", err)
			return
		}
		for _, h := range a.typingHandlers() {
			h(sig)
		}
	case chat.EventConnection, chat.EventHistory:
		// Informational; the transport status callbacks already cover
		// connection state, and history frames are reserved.
	}
}

// scheduleReconnect retries with a fixed delay until the attempt bound
// is hit. Each retry goes through Connect, so a success resets the
// counter for the next flap.
func (a *Agent) scheduleReconnect() {
	a.mu.Lock()
	if a.closed || a.attempts >= a.maxReconnects {
		exhausted := !a.closed
		a.mu.Unlock()
		if exhausted {
			a.log.Warn("giving up", "error", errors.ErrAgentExhausted, "attempts", a.maxReconnects)
		}
		return
	}
	a.attempts++
	attempt := a.attempts
	a.mu.Unlock()

	a.log.Info("reconnecting", "attempt", attempt, "max", a.maxReconnects)
	time.AfterFunc(a.reconnectDelay, func() {
		if err := a.Connect(); err != nil {
			a.log.Info("reconnect failed", "attempt", attempt, "error", err)
			a.scheduleReconnect()
		}
	})
}

func (a *Agent) notifyStatus(status string) {
	a.handlerMu.Lock()
	handlers := append([]StatusHandler(nil), a.onStatus...)
	a.handlerMu.Unlock()
	for _, h := range handlers {
		h(status)
	}
}

func (a *Agent) messageHandlers() []MessageHandler {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	return append([]MessageHandler(nil), a.onMessage...)
}

func (a *Agent) typingHandlers() []TypingHandler {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	return append([]TypingHandler(nil), a.onTyping...)
}
