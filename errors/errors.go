package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrNotFound          = fmt.Errorf("document not found")
	ErrInvalidPath       = fmt.Errorf("invalid document path")
	ErrMalformedDocument = fmt.Errorf("malformed document")
	ErrUnsupportedField  = fmt.Errorf("unsupported field value")

	ErrNoSession = fmt.Errorf("no identity in local session")

	ErrStreamClosed    = fmt.Errorf("conversation stream is closed")
	ErrAlreadyAttached = fmt.Errorf("live subscription already attached")
	ErrEmptyMessage    = fmt.Errorf("message is empty")
	ErrEngineStarted   = fmt.Errorf("notification engine already started")
	ErrEngineStopped   = fmt.Errorf("notification engine stopped")

	ErrNotOwner             = fmt.Errorf("only the owner can do this")
	ErrNotMember            = fmt.Errorf("not a member of this conversation")
	ErrCannotKickOwner      = fmt.Errorf("the owner cannot be kicked")
	ErrNothingToAdd         = fmt.Errorf("no users selected")
	ErrNoFreeConversationID = fmt.Errorf("no unused conversation id found")
	ErrNotAnImage           = fmt.Errorf("content is not an image")
)
