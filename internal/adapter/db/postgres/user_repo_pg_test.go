package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection to :memory: would be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func setupRepo(t *testing.T) (*UserRepoPG, *gorm.DB) {
	db := setupTestDB(t)
	return NewUserRepoPG(db, zaptest.NewLogger(t)), db
}

func fakeUser() *user.User {
	return &user.User{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		PasswordHash: "$2a$10$" + gofakeit.LetterN(53),
		Phone:        gofakeit.Phone(),
	}
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&UserSchema{}).Count(&n).Error)
	return n
}

func TestUserRepoPG_Save(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))

	_, err := uuid.Parse(u.ID)
	assert.NoError(t, err, "id should be a UUID")
	assert.True(t, u.Status, "status defaults to true")
	assert.False(t, u.CreatedAt.IsZero())

	stored, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, u.ID, stored.ID)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
	assert.Equal(t, int64(1), countUsers(t, db))
}

func TestUserRepoPG_Save_DuplicateEmail(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	first := fakeUser()
	require.NoError(t, repo.Save(ctx, first))

	second := fakeUser()
	second.Email = first.Email
	err := repo.Save(ctx, second)

	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
	assert.Empty(t, second.ID)
	assert.Equal(t, int64(1), countUsers(t, db))
}

func TestUserRepoPG_Save_Nil(t *testing.T) {
	repo, _ := setupRepo(t)
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestUserRepoPG_RetrieveAll_OmitsPasswordAndOrdersByIDDesc(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, fakeUser()))
	}

	users, err := repo.RetrieveAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 5)

	for i, u := range users {
		assert.Empty(t, u.PasswordHash, "password must not be selected")
		assert.NotEmpty(t, u.Email)
		if i > 0 {
			assert.Greater(t, users[i-1].ID, u.ID, "ids must be in descending order")
		}
	}
}

func TestUserRepoPG_RetrieveAll_Empty(t *testing.T) {
	repo, _ := setupRepo(t)

	users, err := repo.RetrieveAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepoPG_RetrieveByID(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))

	got, err := repo.RetrieveByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Phone, got.Phone)
	assert.True(t, got.Status)
	assert.Empty(t, got.PasswordHash)

	_, err = repo.RetrieveByID(ctx, uuid.New().String())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoPG_FindByEmail_Missing(t *testing.T) {
	repo, _ := setupRepo(t)

	got, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoPG_Update_ChangesOnlyPatchFields(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))
	_, err := repo.StatusToggle(ctx, u.ID)
	require.NoError(t, err)

	before, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)

	patch := user.Patch{Name: "Updated Name", Email: "updated@example.com", Phone: "555-0100"}
	require.NoError(t, repo.Update(ctx, patch, u.ID))

	after, err := repo.FindByEmail(ctx, patch.Email)
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, patch.Name, after.Name)
	assert.Equal(t, patch.Phone, after.Phone)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, before.Status, after.Status)
}

func TestUserRepoPG_Update_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Update(context.Background(), user.Patch{Name: "Ana", Email: "a@b.com", Phone: "1"}, uuid.New().String())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoPG_Update_DuplicateEmail(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a, b := fakeUser(), fakeUser()
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	err := repo.Update(ctx, user.Patch{Name: b.Name, Email: a.Email, Phone: b.Phone}, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))
	require.NoError(t, repo.Delete(ctx, u.ID))

	_, err := repo.RetrieveByID(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, int64(0), countUsers(t, db))

	err = repo.Delete(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err), "second delete reports not found")
}

func TestUserRepoPG_ChangePassword(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))

	require.NoError(t, repo.ChangePassword(ctx, u.ID, "new-hash"))

	stored, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	assert.Equal(t, u.Name, stored.Name)

	err = repo.ChangePassword(ctx, uuid.New().String(), "x")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoPG_StatusToggle(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := fakeUser()
	require.NoError(t, repo.Save(ctx, u))

	ok, err := repo.StatusToggle(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.RetrieveByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)

	ok, err = repo.StatusToggle(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.RetrieveByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Status, "toggling twice restores the original value")

	ok, err = repo.StatusToggle(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepoPG_ConcurrentSaveSameEmail(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	email := gofakeit.Email()

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := fakeUser()
			u.Email = email
			errs[i] = repo.Save(ctx, u)
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsAlreadyExists(err):
			duplicates++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, duplicates)
	assert.Equal(t, int64(1), countUsers(t, db))
}
