//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/firekill222/signaling-server/domain"
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

// IRegistry is the single source of truth for sessions, members and parties.
// Every mutation is atomic with respect to concurrent readers.
type IRegistry interface {
	AddSession(sessionID domain.SessionID)
	RemoveSession(sessionID domain.SessionID)
	AddMember(memberID domain.MemberID, sessionID domain.SessionID, partyID domain.PartyID)
	RemoveMember(memberID domain.MemberID) (domain.Member, bool)
	FindMemberBySession(sessionID domain.SessionID) (domain.Member, bool)
	MembersOf(partyID domain.PartyID) []domain.MemberID
	SessionOf(memberID domain.MemberID) (domain.SessionID, bool)
	Snapshot() domain.RegistrySnapshot
}

// Dispatcher owns the live connections. Send enqueues a pre-encoded buffer
// for one session and reports false when the connection is not writable.
// It never blocks the caller.
type Dispatcher interface {
	Send(sessionID domain.SessionID, payload []byte) bool
	Close(sessionID domain.SessionID)
}
