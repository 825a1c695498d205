package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSessionMismatch    = fmt.Errorf("message belongs to another session")
	ErrNonChronological   = fmt.Errorf("message is older than the conversation tail")
	ErrUnknownQuickAction = fmt.Errorf("unknown quick action")
	ErrAssistantStopped   = fmt.Errorf("assistant is not running")
	ErrInvalidInput       = fmt.Errorf("invalid input")
)
