package handler

import (
	"time"

	"user-management-service/internal/usecase/user"
)

// Messages returned in the response envelope.
const (
	MsgSuccess         = "success"
	MsgUserCreated     = "successfully created user"
	MsgUserUpdated     = "successfully updated user"
	MsgUserDeleted     = "successfully deleted user"
	MsgPasswordUpdated = "successfully updated password"
	MsgStatusUpdated   = "successfully updated status"
	MsgUserNotFound    = "User not found"
	MsgEmailTaken      = "this email is already registered, please try another one"
	MsgInternalError   = "Internal Error Server"
)

// Response is the envelope every user route answers with.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserResponse represents the HTTP response for user data.
// It has no password field.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
