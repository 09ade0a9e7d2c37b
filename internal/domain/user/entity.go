package user

import "strings"

// User represents a user entity in the system.
type User struct {
	ID          int64  // ID is assigned by the store on insert and never reused
	Name        string // Name is the given name of the user
	Surname     string // Surname is the family name of the user
	Email       string // Email is unique across live users, compared case-insensitively
	Nationality string // Nationality is free text, not unique
}

// EmailKey returns the normalized form used for email uniqueness and lookups.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail reports whether two emails identify the same mailbox for uniqueness purposes.
func SameEmail(a, b string) bool {
	return EmailKey(a) == EmailKey(b)
}
