package usecase

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// StatusCoder is implemented by upstream errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// StatusHandler converts an upstream error with a known status into the error
// a caller should see.
type StatusHandler func(err error) error

// StatusHandlers maps upstream HTTP statuses to handlers.
type StatusHandlers map[int]StatusHandler

// Unwrap returns value when err is nil. Otherwise, if err carries an HTTP
// status with a registered handler, the handler's error is returned; any other
// error propagates unchanged.
func Unwrap[T any](value T, err error, handlers StatusHandlers) (T, error) {
	if err == nil {
		return value, nil
	}

	var zero T
	if status, ok := StatusOf(err); ok {
		if handler, found := handlers[status]; found && handler != nil {
			return zero, handler(err)
		}
	}
	return zero, err
}

// StatusOf extracts the upstream HTTP status from err, if any.
func StatusOf(err error) (int, bool) {
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.HTTPStatus(), true
	}
	return 0, false
}

// NotFoundHandlers maps a 404 from upstream to onNotFound.
func NotFoundHandlers(onNotFound StatusHandler) StatusHandlers {
	return StatusHandlers{http.StatusNotFound: onNotFound}
}
