package user

import "time"

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name     string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=1"`
	Phone    string `validate:"required,min=1"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID string
}

// UpdateUserRequest represents the request payload for updating an existing user.
// Name, Email and Phone are all overwritten.
type UpdateUserRequest struct {
	ID    string `validate:"required,uuid"`
	Name  string `validate:"required,min=3"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,min=1"`
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID string
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string `validate:"required,uuid"`
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string `validate:"required,uuid"`
}

// FindByEmailRequest looks a user up by its natural key.
type FindByEmailRequest struct {
	Email string `validate:"required,email"`
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// ChangePasswordRequest carries the new plaintext password.
type ChangePasswordRequest struct {
	ID       string `validate:"required,uuid"`
	Password string `validate:"required,min=1"`
}

// ChangePasswordResponse represents the response payload after changing a password.
type ChangePasswordResponse struct {
	ID string
}

// ToggleStatusRequest represents the request payload for flipping a user's status.
type ToggleStatusRequest struct {
	ID string `validate:"required,uuid"`
}

// ToggleStatusResponse represents the response payload after flipping a user's status.
type ToggleStatusResponse struct {
	ID string
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
// It never carries the password hash.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
