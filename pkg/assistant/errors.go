package assistant

import "errors"

var (
	// ErrGenerativeBackend wraps every failure of the language model call.
	ErrGenerativeBackend = errors.New("generative backend failed")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrEmptyMessage      = errors.New("empty message")
)
