package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/errors"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	return NewStore(db, writer, logs.GetLoggerFromString("ERROR"))
}

func msgAt(room, id, content string, at time.Time) chat.Message {
	return chat.Message{
		ID:         id,
		ClassID:    room,
		SenderID:   "u1",
		SenderName: "Ana",
		Content:    content,
		CreatedAt:  chat.Timestamp(at),
	}
}

func Test_Mirror_Chronological_Order(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	base := time.Now().UTC()
	// Inserted out of order on purpose.
	req.NoError(store.AddMessage(msgAt("class-1", "m-2", "second", base.Add(time.Minute))))
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "first", base)))
	req.NoError(store.AddMessage(msgAt("class-1", "m-3", "third", base.Add(2*time.Minute))))

	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Equal([]string{"m-1", "m-2", "m-3"}, lo.Map(records, func(r Record, _ int) string {
		return r.ID
	}))
	for _, rec := range records {
		req.False(rec.Synced)
	}
}

func Test_Mirror_Upsert_By_Id(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "draft", base)))
	req.NoError(store.MarkSynced("m-1"))

	// Same id, rewritten content and a shifted timestamp: the old record
	// must vanish wherever its key was, the synced flag resets.
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "final", base.Add(time.Hour))))

	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Len(records, 1)
	req.Equal("final", records[0].Content)
	req.False(records[0].Synced)
}

func Test_Mirror_Mark_Synced(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "hello", time.Now().UTC())))
	req.NoError(store.MarkSynced("m-1"))

	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Len(records, 1)
	req.True(records[0].Synced)

	// Unknown ids are a silent no-op.
	req.NoError(store.MarkSynced("ghost"))
}

func Test_Mirror_Rooms_Are_Separate(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "for one", base)))
	req.NoError(store.AddMessage(msgAt("class-2", "m-2", "for two", base)))

	one, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Len(one, 1)
	req.Equal("m-1", one[0].ID)

	all, err := store.AllMessages()
	req.NoError(err)
	req.Len(all, 2)
}

func Test_Mirror_Room_Ids_With_Delimiter_Stay_Separate(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	// Room ids are opaque client input and may contain the key
	// delimiter themselves.
	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("a", "m-1", "short room", base)))
	req.NoError(store.AddMessage(msgAt("a:b", "m-2", "colon room", base)))

	short, err := store.MessagesByRoom("a")
	req.NoError(err)
	req.Len(short, 1)
	req.Equal("a", short[0].ClassID)

	colon, err := store.MessagesByRoom("a:b")
	req.NoError(err)
	req.Len(colon, 1)
	req.Equal("a:b", colon[0].ClassID)

	req.NoError(store.DeleteRoom("a"))
	colon, err = store.MessagesByRoom("a:b")
	req.NoError(err)
	req.Len(colon, 1)
	req.NoError(store.MarkSynced("m-2"))
}

func Test_Mirror_Unparseable_Timestamp_Sorts_First(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	broken := msgAt("class-1", "m-0", "no clock", time.Now().UTC())
	broken.CreatedAt = "not-a-timestamp"
	req.NoError(store.AddMessage(broken))
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "dated", time.Now().UTC())))

	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Equal([]string{"m-0", "m-1"}, lo.Map(records, func(r Record, _ int) string {
		return r.ID
	}))
}

func Test_Mirror_Delete_Room(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "gone soon", base)))
	req.NoError(store.AddMessage(msgAt("class-2", "m-2", "stays", base)))

	req.NoError(store.DeleteRoom("class-1"))

	one, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Empty(one)
	two, err := store.MessagesByRoom("class-2")
	req.NoError(err)
	req.Len(two, 1)

	// The id ref is gone too: re-adding starts from scratch.
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "back", base)))
	one, err = store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Len(one, 1)
}

func Test_Mirror_Delete_All(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "a", base)))
	req.NoError(store.AddMessage(msgAt("class-2", "m-2", "b", base)))

	req.NoError(store.DeleteAll())

	all, err := store.AllMessages()
	req.NoError(err)
	req.Empty(all)
}

func Test_Mirror_Search(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "homework is due friday", base)))
	req.NoError(store.AddMessage(msgAt("class-1", "m-2", "see you tomorrow", base.Add(time.Minute))))
	req.NoError(store.AddMessage(msgAt("class-2", "m-3", "homework for the other class", base)))

	hits, err := store.Search(ctx, "class-1", "homework", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("m-1", hits[0].ID)

	none, err := store.Search(ctx, "class-1", "volleyball", 10)
	req.NoError(err)
	req.Empty(none)
}

func Test_Mirror_Disabled_Noop(t *testing.T) {
	req := require.New(t)
	var store IStore = Noop{}

	req.NoError(store.AddMessage(msgAt("class-1", "m-1", "lost", time.Now())))
	records, err := store.MessagesByRoom("class-1")
	req.NoError(err)
	req.Empty(records)

	_, err = store.Search(context.Background(), "class-1", "lost", 10)
	req.ErrorIs(err, errors.ErrMirrorDisabled)
}
