package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID           string    // ID is the UUID assigned at creation
	Name         string    // Name is the display name of the user
	Email        string    // Email is the unique email address of the user
	PasswordHash string    // PasswordHash is the bcrypt hash; empty on public reads
	Phone        string    // Phone is the contact number of the user
	Status       bool      // Status is the active flag, true at creation
	CreatedAt    time.Time // CreatedAt is set by the store on insert
	UpdatedAt    time.Time // UpdatedAt is set by the store on every write
}

// Patch holds the fields an update is allowed to overwrite.
type Patch struct {
	Name  string
	Email string
	Phone string
}
