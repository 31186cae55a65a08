// Package models defines the core data structures shared between the
// auth server and the client.
package models

// User represents an authenticated application user as returned by the
// server. The password hash never leaves the server.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// FirstName is the user's given name.
	FirstName string `json:"firstName"`
	// LastName is the user's family name.
	LastName string `json:"lastName"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
}

// Credentials is the JSON payload for a login attempt.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the JSON payload for creating a new account. The field
// set mirrors the registration form and is passed through unmodified.
type Registration struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}
