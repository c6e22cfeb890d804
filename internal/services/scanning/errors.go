package scanning

import "errors"

// ErrSessionNotFound is returned for operations against an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError reports bad or missing caller input. It is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
