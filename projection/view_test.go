package projection

import (
	"sync"
	"testing"
	"time"

	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/errors"
	"github.com/batsdk/wowclass-enlace/mirror"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []chat.Message
	typings int
}

func (f *fakeTransport) SendMessage(classID, userID, userName, content string) (chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := chat.NewMessage(classID, userID, userName, content)
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeTransport) SendTyping(classID, userID, userName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typings++
	return nil
}

func (f *fakeTransport) lastSent() chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newMirror(t *testing.T) *mirror.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return mirror.NewStore(db, writer, logs.GetLoggerFromString("ERROR"))
}

func newView(t *testing.T, store mirror.IStore, opts ...Option) (*View, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	view := NewView("class-1", "alice", "Alice", store, transport,
		logs.GetLoggerFromString("ERROR"), opts...)
	view.HandleStatus("connected")
	return view, transport
}

func peerMessage(id, content string) chat.Message {
	return chat.Message{
		ID:         id,
		ClassID:    "class-1",
		SenderID:   "bob",
		SenderName: "Bob",
		Content:    content,
		CreatedAt:  chat.Timestamp(time.Now()),
	}
}

func Test_View_Dedup_By_Id(t *testing.T) {
	req := require.New(t)
	view, _ := newView(t, mirror.Noop{})

	msg := peerMessage("m-1", "hello")
	view.HandleMessage(msg)
	view.HandleMessage(msg)
	view.HandleMessage(peerMessage("m-2", "hello"))

	messages := view.Messages()
	req.Len(messages, 2)
	req.Equal("m-1", messages[0].ID)
	req.Equal("m-2", messages[1].ID)
}

func Test_View_Optimistic_Send_Then_Echo(t *testing.T) {
	req := require.New(t)
	store := newMirror(t)
	view, transport := newView(t, store)

	req.NoError(view.Send("hi everyone"))

	messages := view.Messages()
	req.Len(messages, 1)
	req.Contains(messages[0].ID, "local-")
	req.False(messages[0].Synced)

	// The relay echoes the send back under its real id; the optimistic
	// record is replaced in place, not duplicated.
	view.HandleMessage(transport.lastSent())

	messages = view.Messages()
	req.Len(messages, 1)
	req.Equal(transport.lastSent().ID, messages[0].ID)
	req.True(messages[0].Synced)
}

func Test_View_Echo_Keeps_List_Order(t *testing.T) {
	req := require.New(t)
	view, transport := newView(t, mirror.Noop{})

	req.NoError(view.Send("first"))
	firstEcho := transport.lastSent()
	req.NoError(view.Send("second"))
	view.HandleMessage(peerMessage("m-1", "from bob"))

	view.HandleMessage(firstEcho)

	messages := view.Messages()
	req.Len(messages, 3)
	req.Equal(firstEcho.ID, messages[0].ID)
	req.Contains(messages[1].ID, "local-")
	req.Equal("m-1", messages[2].ID)
}

func Test_View_Send_Requires_Connection(t *testing.T) {
	req := require.New(t)
	view, transport := newView(t, mirror.Noop{})
	view.HandleStatus("disconnected")

	req.ErrorIs(view.Send("lost"), errors.ErrNotConnected)
	req.ErrorIs(view.Typing(), errors.ErrNotConnected)
	req.Empty(view.Messages())
	req.Empty(transport.sent)
}

func Test_View_Receive_Is_Mirrored_Synced(t *testing.T) {
	req := require.New(t)
	store := newMirror(t)
	view, _ := newView(t, store)

	view.HandleMessage(peerMessage("m-1", "hello"))

	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Len(records, 1)
	req.True(records[0].Synced)
}

func Test_View_Restore_From_Mirror(t *testing.T) {
	req := require.New(t)
	store := newMirror(t)
	req.NoError(store.AddMessage(peerMessage("m-1", "from before")))

	view, _ := newView(t, store)
	req.NoError(view.Restore())

	messages := view.Messages()
	req.Len(messages, 1)
	req.Equal("m-1", messages[0].ID)

	// Replays of the restored message dedup as usual.
	view.HandleMessage(peerMessage("m-1", "from before"))
	req.Len(view.Messages(), 1)
}

func Test_View_Typing_Decay_Resets(t *testing.T) {
	req := require.New(t)
	view, _ := newView(t, mirror.Noop{}, WithTypingTTL(200*time.Millisecond))

	sig := chat.TypingSignal{UserID: "bob", UserName: "Bob"}
	view.HandleTyping(sig)
	req.Equal([]string{"bob"}, view.TypingUsers())

	// A repeated signal resets the window instead of stacking a second
	// timer, so bob outlives the first deadline.
	time.Sleep(120 * time.Millisecond)
	view.HandleTyping(sig)
	time.Sleep(120 * time.Millisecond)
	req.Equal([]string{"bob"}, view.TypingUsers())

	req.Eventually(func() bool {
		return len(view.TypingUsers()) == 0
	}, time.Second, 10*time.Millisecond)
}

func Test_View_Ignores_Own_Typing(t *testing.T) {
	req := require.New(t)
	view, _ := newView(t, mirror.Noop{})

	view.HandleTyping(chat.TypingSignal{UserID: "alice", UserName: "Alice"})
	req.Empty(view.TypingUsers())
}
