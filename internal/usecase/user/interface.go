package user

import "context"

// UserUsecase defines the interface for user business logic operations.
// The transport layer depends on it rather than on *Usecase.
type UserUsecase interface {
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
	FindByEmail(ctx context.Context, in FindByEmailRequest) (*GetUserResponse, error)
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
	ChangePassword(ctx context.Context, in ChangePasswordRequest) (*ChangePasswordResponse, error)
	ToggleStatus(ctx context.Context, in ToggleStatusRequest) (*ToggleStatusResponse, error)
}

var _ UserUsecase = (*Usecase)(nil)
