package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	t.Run("200 -> nil", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusOK); err != nil {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("401 -> auth", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusUnauthorized); err != ErrAuth {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("403 -> auth", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusForbidden); err != ErrAuth {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("404 -> not found", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusNotFound); err != ErrNotFound {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("400 -> validation", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusBadRequest); err != ErrValidation {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("503 -> server", func(t *testing.T) {
		if err := ClassifyStatus(http.StatusServiceUnavailable); err != ErrServer {
			t.Fatalf("got %v", err)
		}
	})
}

func TestNewStatusErrorMessage(t *testing.T) {
	t.Run("json message", func(t *testing.T) {
		err := NewStatusError(http.StatusBadRequest, []byte(`{"message":"Error: Username is already taken!"}`))
		if err.Message != "Error: Username is already taken!" {
			t.Fatalf("got %q", err.Message)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err.Kind)
		}
	})

	t.Run("json error field", func(t *testing.T) {
		err := NewStatusError(http.StatusInternalServerError, []byte(`{"status":500,"error":"Internal Server Error"}`))
		if err.Message != "Internal Server Error" {
			t.Fatalf("got %q", err.Message)
		}
	})

	t.Run("plain text body", func(t *testing.T) {
		err := NewStatusError(http.StatusBadGateway, []byte("upstream down\n"))
		if err.Message != "upstream down" {
			t.Fatalf("got %q", err.Message)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		err := NewStatusError(http.StatusUnauthorized, nil)
		if err.Message != "" || err.Status != "Unauthorized" {
			t.Fatalf("got (%q,%q)", err.Message, err.Status)
		}
	})
}

func TestMessageOf(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewStatusError(http.StatusUnauthorized, []byte(`{"message":"Invalid username or password!"}`)))
	if got := MessageOf(wrapped); got != "Invalid username or password!" {
		t.Fatalf("got %q", got)
	}
	if got := MessageOf(errors.New("boom")); got != "boom" {
		t.Fatalf("got %q", got)
	}
}
