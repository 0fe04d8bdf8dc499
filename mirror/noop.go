package mirror

import (
	"context"

	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/errors"
)

// Noop is the disabled mirror: when local storage cannot be opened the
// client keeps chatting without durability. Writes vanish, reads come
// back empty, and only search reports the mirror as unavailable.
type Noop struct{}

var _ IStore = Noop{}

func (Noop) AddMessage(chat.Message) error                { return nil }
func (Noop) MessagesByRoom(chat.RoomID) ([]Record, error) { return nil, nil }
func (Noop) AllMessages() ([]Record, error)               { return nil, nil }
func (Noop) DeleteRoom(chat.RoomID) error                 { return nil }
func (Noop) DeleteAll() error                             { return nil }
func (Noop) MarkSynced(string) error                      { return nil }
func (Noop) Search(context.Context, chat.RoomID, string, int) ([]Record, error) {
	return nil, errors.ErrMirrorDisabled
}
