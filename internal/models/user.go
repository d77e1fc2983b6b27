package models

// User represents a registered account.
//
// Accounts are created by the admin CLI and never deleted in normal
// operation; a session referencing a missing account is an integrity error.
type User struct {
	// ID is the numeric primary key.
	ID int64

	// Name is the unique login name, restricted by the configured
	// username pattern at login time.
	Name string

	// PassHash is the bcrypt hash of the user's password.
	PassHash string
}
