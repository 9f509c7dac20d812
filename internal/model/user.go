package model

// User is the authenticated account, when any.
type User struct {
	ID    string // Account identifier
	Email string // Login email
}
