package ticktick

import (
	"errors"
	"fmt"

	"github.com/harrisonrobin/ticktask/pkg/auth"
)

var (
	// ErrUsage is returned when arguments violate an operation's contract:
	// duplicate names, unknown parents, invalid colors or inverted date ranges.
	ErrUsage = errors.New("invalid usage")
	// ErrMissingResource is returned when an id has no entry in the local mirror.
	ErrMissingResource = errors.New("resource not found")
	// ErrNotLoggedIn is returned by methods of a client that has no session.
	ErrNotLoggedIn = errors.New("client is not logged in")
	// ErrAuthFailure is returned when the service rejects the credentials.
	ErrAuthFailure = auth.ErrAuthFailure
)

// TransportError is a response with a status outside the call's accepted set.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// AsTransportError unwraps err to a *TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func missing(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrMissingResource, kind, id)
}
