package playerapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("player API unreachable")
	// ErrMalformed covers bodies that are not the expected JSON shape.
	ErrMalformed = errors.New("malformed player API response")
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
}

func (e *StatusError) Unwrap() error { return ErrNetwork }
