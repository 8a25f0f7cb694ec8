package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered reader (or administrator) of the library.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Picture      string
	Role         Role
	Logins       []time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user may perform privileged operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
