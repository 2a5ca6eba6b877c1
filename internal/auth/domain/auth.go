package domain

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the backend's answer to a successful login. Username may
// be empty on older backends.
type LoginResult struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type RegisterResult struct {
	Message string `json:"message"`
}
