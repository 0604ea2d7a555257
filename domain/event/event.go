package event

import (
	"github.com/firekill222/signaling-server/domain"
)

// SessionEvent is one lifecycle or traffic event on a connection.
// The dispatcher produces exactly one Connected and one Closed per
// session, with FrameReceived only in between.
type SessionEvent interface {
	SessionID() domain.SessionID
}

type Connected struct {
	Session domain.SessionID
}

func (e Connected) SessionID() domain.SessionID { return e.Session }

type FrameReceived struct {
	Session domain.SessionID
	Payload []byte
}

func (e FrameReceived) SessionID() domain.SessionID { return e.Session }

type Closed struct {
	Session domain.SessionID
}

func (e Closed) SessionID() domain.SessionID { return e.Session }
