package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"
	"user-management-service/pkg/logger"
	"user-management-service/pkg/validation"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing a plain database repository or a
// cached decorator to be used interchangeably.
type Repository interface {
	RetrieveAll(ctx context.Context) ([]domain.User, error)              // All users, newest id first, no hashes
	RetrieveByID(ctx context.Context, id string) (*domain.User, error)   // Public record or NotFound
	FindByEmail(ctx context.Context, email string) (*domain.User, error) // Full record or nil
	Save(ctx context.Context, u *domain.User) error                      // Insert; fills id, status, timestamps
	Update(ctx context.Context, patch domain.Patch, id string) error     // Overwrite name, email, phone
	Delete(ctx context.Context, id string) error                         // Physical delete
	ChangePassword(ctx context.Context, id, passwordHash string) error   // Overwrite hash only
	StatusToggle(ctx context.Context, id string) (bool, error)           // false when no row matched
}

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	hasher   PasswordHasher      // Hasher applied before any password is stored
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Usecase with the provided repository, hasher, and logger.
func New(r Repository, h PasswordHasher, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, hasher: h, log: log, validate: validation.New()}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError
// carrying the first violated rule.
func formatValidationError(err error) error {
	if field, message, ok := validation.First(err); ok {
		return apperrors.NewValidationError(field, message)
	}
	return apperrors.NewValidationError("", err.Error())
}

func toDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ListUsers retrieves every user, newest id first.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("listing users")

	domainUsers, err := uc.repo.RetrieveAll(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{Users: users}, nil
}

// GetUser retrieves a user by ID after validating the request.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("get user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.repo.RetrieveByID(ctx, in.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Info("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// FindByEmail retrieves a user by email. The password hash is dropped.
func (uc *Usecase) FindByEmail(ctx context.Context, in FindByEmailRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("find by email validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to find user by email", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: email=%s", in.Email))
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// CreateUser hashes the password and stores a new user.
// Email uniqueness is enforced by the store; a duplicate surfaces as AlreadyExistsError.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
	}
	if err := uc.repo.Save(ctx, u); err != nil {
		if apperrors.IsAlreadyExists(err) {
			log.Warn("email already exists", zap.String("email", in.Email))
		} else {
			log.Error("failed to create user", zap.Error(err))
		}
		return nil, err
	}

	return &CreateUserResponse{ID: u.ID}, nil
}

// UpdateUser overwrites name, email and phone of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.String("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	patch := domain.Patch{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := uc.repo.Update(ctx, patch, in.ID); err != nil {
		log.Warn("failed to update user", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &UpdateUserResponse{ID: in.ID}, nil
}

// DeleteUser physically removes a user.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.String("id", in.ID))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("delete user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		log.Warn("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// ChangePassword hashes the new password and stores it.
func (uc *Usecase) ChangePassword(ctx context.Context, in ChangePasswordRequest) (*ChangePasswordResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("changing password", zap.String("id", in.ID))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.String("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.String("id", in.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	if err := uc.repo.ChangePassword(ctx, in.ID, hash); err != nil {
		log.Warn("failed to change password", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &ChangePasswordResponse{ID: in.ID}, nil
}

// ToggleStatus flips the status flag. A user that does not exist yields a NotFoundError.
func (uc *Usecase) ToggleStatus(ctx context.Context, in ToggleStatusRequest) (*ToggleStatusResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("toggling user status", zap.String("id", in.ID))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("toggle status validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	ok, err := uc.repo.StatusToggle(ctx, in.ID)
	if err != nil {
		log.Error("failed to toggle user status", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}
	if !ok {
		log.Info("user not found", zap.String("id", in.ID))
		return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", in.ID))
	}

	return &ToggleStatusResponse{ID: in.ID}, nil
}
