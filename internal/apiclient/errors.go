package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized marks a 401 from the gateway. It is never handled at
	// the call site; the storefront dispatcher turns it into a logout.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("gateway unavailable")
)

type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

func (e *StatusError) ServiceMessage() string { return e.Message }

// IsStatus reports whether err carries the given upstream status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// ExtractMessage pulls a human readable message out of an error body,
// preferring "message" over "error".
func ExtractMessage(body []byte) string {
	var m struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{m.Message, m.Error} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}
