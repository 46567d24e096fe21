package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches a NetworkError whose status is 404 (room or card unknown to the server).
var ErrNotFound = errors.New("not found")

// NetworkError is returned when a request fails in transport or answers with a non-2xx status.
type NetworkError struct {
	Method     string
	Path       string
	StatusCode int // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if b := strings.TrimSpace(e.Body); b != "" {
		if len(b) > 200 {
			b = b[:200] + "..."
		}
		msg += ": " + b
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err (or anything it wraps) is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
