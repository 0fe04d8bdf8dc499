//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/batsdk/wowclass-enlace/domain/chat"
)

// Identity is a verified credential subject.
type Identity struct {
	SubjectID string
	Role      string
	Name      string
}

// TokenVerifier is the credential-verification boundary consumed by the
// connection handshake and by the thin HTTP endpoints.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Member is one live connection as seen by the registry, the relay and
// the liveness reaper. A member belongs to exactly one room for its
// entire lifetime.
type Member interface {
	Room() chat.RoomID
	UserID() string
	UserName() string
	// Ready reports whether the transport accepts writes right now.
	// Non-ready members are skipped by broadcasts, not removed.
	Ready() bool
	SendRaw(data []byte) error
	// Liveness flag: cleared before each ping, restored by the pong.
	Alive() bool
	ClearAlive()
	Ping() error
	Terminate(reason string)
}

// IRegistry tracks which connections belong to which room.
type IRegistry interface {
	Join(room chat.RoomID, m Member)
	Leave(room chat.RoomID, m Member)
	Members(room chat.RoomID) []Member
	Count(room chat.RoomID) int
	Each(fn func(m Member))
}

// IBroadcaster fans one serialized event out to a room.
type IBroadcaster interface {
	Broadcast(room chat.RoomID, frame []byte, except Member)
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
