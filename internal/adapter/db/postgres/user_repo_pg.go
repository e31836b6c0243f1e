package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"
	"user-management-service/pkg/logger"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// publicColumns are the columns returned by reads that must never expose the password hash.
var publicColumns = []string{"id", "name", "email", "phone", "status", "created_at", "updated_at"}

// UserRepoPG implements the user repository on top of GORM.
// It runs against PostgreSQL in production and SQLite in tests.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;uniqueIndex"`
	Password  string    `gorm:"not null"`
	Phone     string    `gorm:"not null"`
	Status    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m *UserSchema) toDomain() *user.User {
	return &user.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.Password,
		Phone:        m.Phone,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Migrate creates or updates the users table to match UserSchema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// RetrieveAll returns every user ordered by id descending, without password hashes.
func (r *UserRepoPG) RetrieveAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Select(publicColumns).Order("id DESC").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *models[i].toDomain()
	}
	return users, nil
}

// RetrieveByID returns the user with the given id, without its password hash.
func (r *UserRepoPG) RetrieveByID(ctx context.Context, id string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Select(publicColumns).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found", zap.String("id", id))
			return nil, notFound(id)
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return model.toDomain(), nil
}

// FindByEmail returns the user with the given email including its password hash,
// or nil when no such user exists.
func (r *UserRepoPG) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return model.toDomain(), nil
}

// Save inserts a new user. The id, status and timestamps are assigned here and
// written back into u. A duplicate email yields an AlreadyExistsError.
func (r *UserRepoPG) Save(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := UserSchema{
		ID:       uuid.New().String(),
		Name:     u.Name,
		Email:    u.Email,
		Password: u.PasswordHash,
		Phone:    u.Phone,
		Status:   true,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateKey(err) {
			logger.WithContext(ctx, r.log).Warn("email already registered", zap.String("email", u.Email))
			return emailTaken(err)
		}
		logger.WithContext(ctx, r.log).Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = model.ID
	u.Status = model.Status
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt

	logger.WithContext(ctx, r.log).Info("user created in db", zap.String("id", model.ID))
	return nil
}

// Update overwrites name, email and phone of the user with the given id.
func (r *UserRepoPG) Update(ctx context.Context, patch user.Patch, id string) error {
	res := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Updates(map[string]any{
		"name":  patch.Name,
		"email": patch.Email,
		"phone": patch.Phone,
	})
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			logger.WithContext(ctx, r.log).Warn("email already registered", zap.String("email", patch.Email), zap.String("id", id))
			return emailTaken(res.Error)
		}
		logger.WithContext(ctx, r.log).Error("failed to update user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}

	logger.WithContext(ctx, r.log).Info("user updated in db", zap.String("id", id))
	return nil
}

// Delete physically removes the user with the given id.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}

	logger.WithContext(ctx, r.log).Info("user deleted in db", zap.String("id", id))
	return nil
}

// ChangePassword stores passwordHash for the user with the given id.
// The caller is responsible for hashing.
func (r *UserRepoPG) ChangePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to change password in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to change password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}

	logger.WithContext(ctx, r.log).Info("user password changed in db", zap.String("id", id))
	return nil
}

// StatusToggle flips the status flag in a single statement.
// It reports false when no user has the given id.
func (r *UserRepoPG) StatusToggle(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Update("status", gorm.Expr("NOT status"))
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to toggle user status in db", zap.Error(res.Error), zap.String("id", id))
		return false, fmt.Errorf("failed to toggle user status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logger.WithContext(ctx, r.log).Debug("status toggle matched no user", zap.String("id", id))
		return false, nil
	}

	logger.WithContext(ctx, r.log).Info("user status toggled in db", zap.String("id", id))
	return true, nil
}

func notFound(id string) error {
	return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
}

func emailTaken(err error) error {
	return &apperrors.AlreadyExistsError{
		Resource: "user",
		Message:  "email already registered",
		Err:      err,
	}
}

// isDuplicateKey recognises unique violations from the translated GORM error,
// the raw PostgreSQL error and the SQLite driver message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
