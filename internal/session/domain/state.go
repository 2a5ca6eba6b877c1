package domain

// Storage keys. They match what the web client kept in localStorage so a
// migrated state file reads the same.
const (
	KeySessionID     = "sessionId"
	KeyAuthenticated = "isAuthenticated"
	KeyUsername      = "currentUser"
)

// State is the application context handed to every component instead of
// each one reading storage on its own.
type State struct {
	SessionID     string
	Authenticated bool
	Username      string
}
