package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNetwork     = errors.New("network error")
	ErrAuth        = errors.New("not authenticated")
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("invalid request")
	ErrServer      = errors.New("server error")
	ErrStreamParse = errors.New("malformed stream payload")
)

// StatusError is a non-2xx response. It unwraps to one of the sentinels above.
type StatusError struct {
	Kind       error
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %d %s: %s", e.Kind, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %d %s", e.Kind, e.StatusCode, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// ClassifyStatus maps an HTTP status code to its sentinel, nil for 2xx.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 400 && code <= 499:
		return ErrValidation
	default:
		return ErrServer
	}
}

func NewStatusError(code int, body []byte) *StatusError {
	return &StatusError{
		Kind:       ClassifyStatus(code),
		StatusCode: code,
		Status:     http.StatusText(code),
		Message:    serverMessage(body),
	}
}

// serverMessage pulls a human message out of an error body. The backend
// answers with {"message": ...}; plain-text bodies are used as-is.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	if !gjson.Valid(trimmed) {
		if len(trimmed) > 200 {
			return trimmed[:200]
		}
		return trimmed
	}
	for _, path := range []string{"message", "error", "detail"} {
		if r := gjson.Get(trimmed, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// MessageOf returns the server-provided message when err carries one,
// otherwise err's text.
func MessageOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
