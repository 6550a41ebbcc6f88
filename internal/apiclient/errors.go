package apiclient

import (
	"errors"
	"fmt"
)

type Kind int

const (
	InvalidInput Kind = iota + 1
	NetworkFailure
	HTTPError
	LogicalError
	GeolocationUnavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NetworkFailure:
		return "network_failure"
	case HTTPError:
		return "http_error"
	case LogicalError:
		return "logical_error"
	case GeolocationUnavailable:
		return "geolocation_unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FallbackMessage is shown when a failure carries no text of its own.
const FallbackMessage = "Failed to fetch data"

// Error is a failed lookup. Message is what the user sees.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return FallbackMessage
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: HTTPError}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// UserMessage is the toast text for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

var ErrInvalidCoordinates = &Error{Kind: InvalidInput, Message: "Invalid coordinates"}
