//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"log/slog"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/observability"
)

// IChatService is what the transport handler needs from the relay core.
type IChatService interface {
	Join(room chat.RoomID, m contract.Member)
	Leave(room chat.RoomID, m contract.Member)
	RelayMessage(room chat.RoomID, msg chat.Message) error
	RelayTyping(room chat.RoomID, sig chat.TypingSignal, origin contract.Member) error
}

// ChatService glues registry, relay and telemetry together. It is the
// only writer of room membership besides the sessions' close path.
type ChatService struct {
	registry contract.IRegistry
	relay    contract.IBroadcaster
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewChatService(registry contract.IRegistry, relay contract.IBroadcaster,
	monitor *observability.Monitor, log *slog.Logger) *ChatService {
	return &ChatService{registry: registry, relay: relay, monitor: monitor, log: log}
}

func (s *ChatService) Join(room chat.RoomID, m contract.Member) {
	s.registry.Join(room, m)
	s.monitor.ConnectionOpened()
	s.log.Info("member joined", "class_id", room, "user_id", m.UserID(), "user_name", m.UserName())
}

func (s *ChatService) Leave(room chat.RoomID, m contract.Member) {
	s.registry.Leave(room, m)
	s.monitor.ConnectionClosed()
	s.log.Info("member left", "class_id", room, "user_id", m.UserID())
}

// RelayMessage fans a message out to every member of the room, the
// sender included; clients collapse the echo by id.
func (s *ChatService) RelayMessage(room chat.RoomID, msg chat.Message) error {
	frame, err := chat.EncodeMessageFrame(msg)
	if err != nil {
		return err
	}
	s.relay.Broadcast(room, frame, nil)
	s.monitor.MessageRelayed()
	return nil
}

// RelayTyping fans a typing signal out to everyone but the originating
// connection. The payload's classId is dropped; the connection's bound
// room is authoritative.
func (s *ChatService) RelayTyping(room chat.RoomID, sig chat.TypingSignal, origin contract.Member) error {
	sig.ClassID = ""
	frame, err := chat.EncodeTypingFrame(sig)
	if err != nil {
		return err
	}
	s.relay.Broadcast(room, frame, origin)
	s.monitor.TypingRelayed()
	return nil
}
