package auth

import "time"

// Account represents an admin account able to sign in.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
