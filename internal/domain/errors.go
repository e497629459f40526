package domain

import "errors"

// Sentinel errors returned by the registration engine and its collaborators.
// Callers match them with errors.Is; stores wrap them with context.
var (
	// ErrWindowClosed means voting has not opened yet or has already closed.
	ErrWindowClosed = errors.New("voting window closed")
	// ErrAlreadyRegistered means the user already holds a MEMBER record for the event.
	ErrAlreadyRegistered = errors.New("already registered")
	// ErrForbidden means the requester does not own the record.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the registration record does not exist.
	ErrNotFound = errors.New("registration not found")
	// ErrEventNotFound means the event descriptor does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrUnavailable is a transient store failure. Safe to retry.
	ErrUnavailable  = errors.New("store unavailable")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)
