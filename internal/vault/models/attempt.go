package models

// LoginAttempt tracks failed logins per username. It is keyed by the username
// string rather than a user foreign key, so lockout state survives account
// deletion and recreation under the same name.
type LoginAttempt struct {
	Username    string
	Attempts    int
	LastAttempt int64 // epoch seconds
}
