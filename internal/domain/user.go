package domain

import "time"

// DefaultProfileImage is the placeholder avatar assigned at registration.
const DefaultProfileImage = "default.png"

// User represents an authenticated user of the system. Usernames are stored
// case-folded; lookups must fold the same way.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
