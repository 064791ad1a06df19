package api

import (
	"errors"
	"fmt"
)

var (
	ErrTransport      = errors.New("transport error")
	ErrMalformed      = errors.New("malformed response")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadCredentials = errors.New("bad credentials")
)

// Error is a reply with success=false.
type Error struct {
	Endpoint string
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed", e.Endpoint)
	}

	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// Message returns the backend message of an application error, or "" for other errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return ""
}

func IsApplication(err error) bool {
	var e *Error

	return errors.As(err, &e)
}
