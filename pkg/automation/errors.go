package automation

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a WebDriver error. Code is the W3C error code string.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors with the same code, so errors.Is(err, ErrNoSuchAlert)
// holds for any no-such-alert error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// with returns a copy of e with a different message.
func (e *Error) with(format string, args ...any) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: fmt.Sprintf(format, args...)}
}

// WebDriver errors used by the server.
var (
	ErrNoSuchElement = &Error{
		Code:    "no such element",
		Status:  http.StatusNotFound,
		Message: "An element could not be located on the page using the given search parameters",
	}
	ErrNoSuchAlert = &Error{
		Code:    "no such alert",
		Status:  http.StatusNotFound,
		Message: "An attempt was made to operate on a modal dialog when one was not open",
	}
	ErrStaleElement = &Error{
		Code:    "stale element reference",
		Status:  http.StatusNotFound,
		Message: "The previously found element is not present in the current view anymore",
	}
	ErrInvalidArgument = &Error{
		Code:    "invalid argument",
		Status:  http.StatusBadRequest,
		Message: "The arguments passed to the command are either invalid or malformed",
	}
	ErrInvalidSelector = &Error{
		Code:    "invalid selector",
		Status:  http.StatusBadRequest,
		Message: "The given selector is invalid",
	}
	ErrInvalidSession = &Error{
		Code:    "invalid session id",
		Status:  http.StatusNotFound,
		Message: "Session does not exist",
	}
	ErrSessionNotCreated = &Error{
		Code:    "session not created",
		Status:  http.StatusInternalServerError,
		Message: "A new session could not be created",
	}
	ErrInvalidElementState = &Error{
		Code:    "invalid element state",
		Status:  http.StatusBadRequest,
		Message: "The element is in a state that does not allow the command",
	}
	ErrNotInteractable = &Error{
		Code:    "element not interactable",
		Status:  http.StatusBadRequest,
		Message: "The element is not visible on the screen and cannot be interacted with",
	}
	ErrUnknownCommand = &Error{
		Code:    "unknown command",
		Status:  http.StatusNotFound,
		Message: "Unhandled endpoint",
	}
	ErrUnknownError = &Error{
		Code:    "unknown error",
		Status:  http.StatusInternalServerError,
		Message: "An unknown server-side error occurred",
	}
)

// asWebDriverError maps any error to a WebDriver error. Errors that are not
// already *Error become "unknown error" carrying err's message.
func asWebDriverError(err error) *Error {
	var wd *Error
	if errors.As(err, &wd) {
		return wd
	}
	return ErrUnknownError.with("%v", err)
}
