//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"campus-chat/domain"
	"campus-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// RoomSink pairs a room subscriber's sink with its owning user so the
// fanout can honor sender exclusion.
type RoomSink struct {
	UserID string
	Sink   EventSink
}

// IRegistry tracks live connections and their room attachments. It is
// entirely in-memory and scoped to the running process; presence state
// is lost on restart.
type IRegistry interface {
	Register(userID, username, connectionID string, sink EventSink)
	Lookup(userID string) (string, bool)
	RemoveByConnection(connectionID string)
	Attach(userID string, groupID domain.GroupID)
	Detach(userID string, groupID domain.GroupID)
	Attached(userID string, groupID domain.GroupID) bool
	SinksForRoom(groupID domain.GroupID) []RoomSink
}
