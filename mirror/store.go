//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_mirror.go -package=mocks
// Package mirror keeps a durable local copy of every message a client
// has seen, indexed by room and creation time, with a synced flag for
// records the relay has confirmed.
package mirror

import (
	"context"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

type IStore interface {
	AddMessage(msg chat.Message) error
	MessagesByRoom(room chat.RoomID) ([]Record, error)
	AllMessages() ([]Record, error)
	DeleteRoom(room chat.RoomID) error
	DeleteAll() error
	MarkSynced(id string) error
	Search(ctx context.Context, room chat.RoomID, query string, limit int) ([]Record, error)
}

// Record is one mirrored message. Synced starts false on every upsert
// and flips once the relay echoes the message back.
type Record struct {
	chat.Message
	Synced bool `json:"synced"`
}

// Store persists records in BadgerDB and mirrors their content into a
// Bluge index for full-text recall.
type Store struct {
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

func NewStore(db *badger.DB, writer *bluge.Writer, log *slog.Logger) *Store {
	return &Store{db: db, writer: writer, log: log}
}

// The record key is "msg:{room_hex}:{timestamp_padded}:{id}" so a
// forward prefix scan returns a room's messages in creation order. The
// room id is client-supplied and may itself contain ':', so it is
// hex-encoded to keep the segment delimiter unambiguous. The 19-digit
// zero padding keeps the lexicographic and numeric orders aligned, and
// the id disambiguates same-nanosecond messages.
func recordKey(msg chat.Message) []byte {
	ts := chat.ParseTimestamp(msg.CreatedAt).UnixNano()
	if ts < 0 {
		// Pre-epoch and fallback zero times would render a sign
		// character that breaks the padded alignment.
		ts = 0
	}
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", encodeRoom(chat.RoomID(msg.ClassID)), ts, msg.ID))
}

// The ref key maps a message id to its current record key, which makes
// upsert-by-id possible even when a rewrite moved the timestamp.
func refKey(id string) []byte {
	return []byte("ref:" + id)
}

func encodeRoom(room chat.RoomID) string {
	return hex.EncodeToString([]byte(room))
}

func roomPrefix(room chat.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", encodeRoom(room)))
}

// AddMessage upserts by message id: a record with the same id replaces
// the previous one wherever its old key was, and the synced flag resets.
func (s *Store) AddMessage(msg chat.Message) error {
	rec := Record{Message: msg, Synced: false}
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := recordKey(msg)

	err = s.db.Update(func(txn *badger.Txn) error {
		if old, err := lookupRef(txn, msg.ID); err != nil {
			return err
		} else if old != nil && string(old) != string(key) {
			if err := txn.Delete(old); err != nil {
				return err
			}
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(refKey(msg.ID), key)
	})
	if err != nil {
		return err
	}
	return s.index(msg)
}

func lookupRef(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(refKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *Store) index(msg chat.Message) error {
	doc := bluge.NewDocument(msg.ID).
		AddField(bluge.NewKeywordField("room", msg.ClassID).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content)).
		AddField(bluge.NewKeywordField("sender", msg.SenderName))
	return s.writer.Update(doc.ID(), doc)
}

// MessagesByRoom returns a room's mirrored messages in creation order.
func (s *Store) MessagesByRoom(room chat.RoomID) ([]Record, error) {
	return s.scan(roomPrefix(room))
}

// AllMessages returns every mirrored message across rooms.
func (s *Store) AllMessages() ([]Record, error) {
	return s.scan([]byte("msg:"))
}

func (s *Store) scan(prefix []byte) ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var rec Record
				if err := json.Unmarshal(value, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

// DeleteRoom drops a room's records, their id refs and index entries.
func (s *Store) DeleteRoom(room chat.RoomID) error {
	prefix := roomPrefix(room)
	var keys [][]byte
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keys = append(keys, key)
			parts := strings.SplitN(string(key), ":", 4)
			if len(parts) == 4 {
				ids = append(ids, parts[3])
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, id := range ids {
			if err := txn.Delete(refKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := s.writer.Delete(bluge.Identifier(id)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll wipes the mirror.
func (s *Store) DeleteAll() error {
	records, err := s.AllMessages()
	if err != nil {
		return err
	}
	if err := s.db.DropAll(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := s.writer.Delete(bluge.Identifier(rec.ID)); err != nil {
			return err
		}
	}
	return nil
}

// MarkSynced flips the synced flag on the record with the given id.
// Unknown ids are a no-op: the record may have been locally purged.
func (s *Store) MarkSynced(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := lookupRef(txn, id)
		if err != nil || key == nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		rec.Synced = true
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, updated)
	})
}

// Search runs a full-text match over a room's mirrored content and
// resolves the hits back to full records.
func (s *Store) Search(ctx context.Context, room chat.RoomID, query string, limit int) ([]Record, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("content")).
		AddMust(bluge.NewTermQuery(string(room)).SetField("room"))
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []string
	for match, err := iterator.Next(); match != nil; match, err = iterator.Next() {
		if err != nil {
			return nil, err
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	var records []Record
	err = s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			key, err := lookupRef(txn, id)
			if err != nil {
				return err
			}
			if key == nil {
				continue
			}
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				var rec Record
				if err := json.Unmarshal(value, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}
