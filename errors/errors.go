package errors

import "fmt"

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrMalformedMessage     = fmt.Errorf("malformed message")
	ErrUnknownSender        = fmt.Errorf("unknown sender")
	ErrUnknownParty         = fmt.Errorf("unknown party")
	ErrTransportUnavailable = fmt.Errorf("transport unavailable")
	ErrSessionTaken         = fmt.Errorf("session id already connected")
)
