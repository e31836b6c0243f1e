package handler

// Request schemas bound and validated by middleware.Validate before a handler runs.
// Path fields are excluded from query and body binding so neither can override the URL.

// UserIDParams is the schema of routes that only take the user id.
type UserIDParams struct {
	ID string `uri:"id" json:"-" form:"-" validate:"required,uuid"`
}

// ListUsersQuery is the schema of the list route. Email narrows the list to one user.
type ListUsersQuery struct {
	Email string `form:"email" json:"-" validate:"omitempty,email"`
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	Phone    string `json:"phone" validate:"required,min=1"`
}

// UpdateUserRequest represents the HTTP request for updating a user
type UpdateUserRequest struct {
	ID    string `uri:"id" json:"-" form:"-" validate:"required,uuid"`
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=1"`
}

// ChangePasswordRequest represents the HTTP request for replacing a password
type ChangePasswordRequest struct {
	ID       string `uri:"id" json:"-" form:"-" validate:"required,uuid"`
	Password string `json:"password" validate:"required,min=1"`
}
