package storefront

import (
	"errors"
	"fmt"

	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

var (
	// ErrLoggedOut means the backend rejected the login and the client has
	// dropped it. The user must log in again.
	ErrLoggedOut   = errors.New("session expired, please log in again")
	ErrNotLoggedIn = errors.New("not logged in")
	ErrStreamEnded = errors.New("cart stream ended")
)

const (
	msgNetwork = "Cannot connect to server. Please ensure the backend server is running."
	msgInit    = "Failed to load application data."
)

// InitError is a failed startup load. It stays until Retry succeeds.
type InitError struct {
	Message string
	Err     error
}

func (e *InitError) Error() string { return e.Message }
func (e *InitError) Unwrap() error { return e.Err }

func initMessage(err error) string {
	var se *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrNetwork):
		return msgNetwork
	case errors.As(err, &se):
		return fmt.Sprintf("Server error: %d - %s", se.StatusCode, se.Status)
	default:
		return msgInit
	}
}

// Alert is a transient failure of a user action. The cart is left as the
// stream last reported it.
type Alert struct {
	Message string
	Err     error
}

func (a *Alert) Error() string { return a.Message }
func (a *Alert) Unwrap() error { return a.Err }
