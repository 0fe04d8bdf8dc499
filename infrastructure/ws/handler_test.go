package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/observability"
	"github.com/batsdk/wowclass-enlace/runtime"
	"github.com/batsdk/wowclass-enlace/services"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type testServer struct {
	srv      *httptest.Server
	registry *runtime.Registry
	signer   *auth.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logs.GetLoggerFromString("ERROR")
	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(registry, log)
	monitor := observability.NewMonitor()
	signer := auth.NewSigner([]byte(testSecret), time.Hour)
	service := services.NewChatService(registry, relay, monitor, log)
	handler := NewHandler(signer, service, monitor, log)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, registry: registry, signer: signer}
}

func (ts *testServer) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?" + query
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := ts.signer.Generate(contract.Identity{SubjectID: userID, Role: "student", Name: userID})
	require.NoError(t, err)
	return tok
}

// dial connects with valid credentials and consumes the connection
// confirmation frame.
func (ts *testServer) dial(t *testing.T, classID, userID string) *websocket.Conn {
	t.Helper()
	header := http.Header{"Cookie": {auth.CookieName + "=" + ts.token(t, userID)}}
	conn, _, err := websocket.DefaultDialer.Dial(
		ts.wsURL("classId="+classID+"&userId="+userID+"&userName="+userID), header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	frame := readFrame(t, conn)
	require.Equal(t, chat.EventConnection, frame.Type)
	status, err := chat.DecodeConnection(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, "connected", status.Status)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chat.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := chat.DecodeFrame(data)
	require.NoError(t, err)
	return frame
}

func expectPolicyClose(t *testing.T, conn *websocket.Conn, reason string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	require.Equal(t, reason, closeErr.Text)
}

func TestHandshakeRejectsMissingParams(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	header := http.Header{"Cookie": {auth.CookieName + "=" + ts.token(t, "u1")}}
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL("userId=u1"), header)
	require.NoError(err)
	defer conn.Close()

	expectPolicyClose(t, conn, ReasonMissingParams)
	require.Zero(ts.registry.Count("class-1"))
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL("classId=class-1&userId=u1"), nil)
	require.NoError(err)
	defer conn.Close()

	expectPolicyClose(t, conn, ReasonNoToken)
	require.Zero(ts.registry.Count("class-1"))
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	header := http.Header{"Cookie": {auth.CookieName + "=not-a-jwt"}}
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL("classId=class-1&userId=u1"), header)
	require.NoError(err)
	defer conn.Close()

	expectPolicyClose(t, conn, ReasonInvalidToken)
	require.Zero(ts.registry.Count("class-1"))
}

func TestConnectRegistersAndConfirms(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	ts.dial(t, "class-1", "alice")
	require.Equal(1, ts.registry.Count("class-1"))
}

func TestMessageFanOutReachesEveryoneWithServerIdentity(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	alice := ts.dial(t, "class-1", "alice")
	bob := ts.dial(t, "class-1", "bob")

	// The payload claims to be bob; the relay must stamp the
	// connection's own identity instead.
	spoofed := chat.Message{
		ID:         "m-1",
		ClassID:    "class-9",
		SenderID:   "bob",
		SenderName: "bob",
		Content:    "hello class",
		CreatedAt:  chat.Timestamp(time.Now()),
	}
	frame, err := chat.EncodeMessageFrame(spoofed)
	require.NoError(err)
	require.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	for _, conn := range []*websocket.Conn{alice, bob} {
		got := readFrame(t, conn)
		require.Equal(chat.EventMessage, got.Type)
		msg, err := chat.DecodeMessage(got.Payload)
		require.NoError(err)
		require.Equal("m-1", msg.ID)
		require.Equal("class-1", msg.ClassID)
		require.Equal("alice", msg.SenderID)
		require.Equal("alice", msg.SenderName)
		require.Equal("hello class", msg.Content)
	}
}

func TestTypingSkipsOriginatorAndDropsClassID(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	alice := ts.dial(t, "class-1", "alice")
	bob := ts.dial(t, "class-1", "bob")

	frame, err := chat.EncodeTypingFrame(chat.TypingSignal{
		ClassID: "class-1", UserID: "alice", UserName: "alice",
	})
	require.NoError(err)
	require.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	got := readFrame(t, bob)
	require.Equal(chat.EventTyping, got.Type)
	var raw map[string]json.RawMessage
	require.NoError(json.Unmarshal(got.Payload, &raw))
	require.NotContains(raw, "classId")
	sig, err := chat.DecodeTyping(got.Payload)
	require.NoError(err)
	require.Equal("alice", sig.UserID)

	// The originator must stay silent.
	require.NoError(alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err = alice.ReadMessage()
	require.Error(err)
}

func TestMalformedFrameDoesNotKillSession(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	alice := ts.dial(t, "class-1", "alice")

	require.NoError(alice.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport","payload":{}}`)))
	require.NoError(alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"message","payload":{"content":"no id"}}`)))

	valid := chat.NewMessage("class-1", "alice", "alice", "still here")
	frame, err := chat.EncodeMessageFrame(valid)
	require.NoError(err)
	require.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	got := readFrame(t, alice)
	require.Equal(chat.EventMessage, got.Type)
	msg, err := chat.DecodeMessage(got.Payload)
	require.NoError(err)
	require.Equal("still here", msg.Content)
}

func TestAbruptCloseDeregisters(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	alice := ts.dial(t, "class-1", "alice")
	require.Equal(1, ts.registry.Count("class-1"))

	require.NoError(alice.Close())

	require.Eventually(func() bool {
		return ts.registry.Count("class-1") == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRoomsAreIsolated(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t)

	alice := ts.dial(t, "class-1", "alice")
	carol := ts.dial(t, "class-2", "carol")

	msg := chat.NewMessage("class-1", "alice", "alice", "only for class one")
	frame, err := chat.EncodeMessageFrame(msg)
	require.NoError(err)
	require.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	got := readFrame(t, alice)
	require.Equal(chat.EventMessage, got.Type)

	require.NoError(carol.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err = carol.ReadMessage()
	require.Error(err)
}
