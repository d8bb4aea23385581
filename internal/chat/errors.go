package chat

import "errors"

// Registration failures. All of them are surfaced to the requesting
// connection as the same {success:false} reply.
var (
	ErrInvalidUsername   = errors.New("username must start with a letter and contain only letters and digits")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrAlreadyRegistered = errors.New("connection already registered")
)

// ErrUserNotFound is returned when an addressed username has no registry entry.
var ErrUserNotFound = errors.New("user not found")

// Inbound frame failures reported back to the transport for logging.
var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event")
)
