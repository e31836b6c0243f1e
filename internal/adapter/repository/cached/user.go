package cached

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-management-service/internal/adapter/cache"
	domain "user-management-service/internal/domain/user"
	"user-management-service/internal/usecase/user"
	"user-management-service/pkg/logger"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	// per-stripe write counters; a read fills the cache only if no write to its
	// stripe landed while it was reading
	writes [writeStripes]atomic.Uint64
}

const writeStripes = 256

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) user.Repository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// RetrieveAll delegates to the DB repository.
func (r *CachedUserRepository) RetrieveAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.RetrieveAll(ctx)
}

// RetrieveByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) RetrieveByID(ctx context.Context, id string) (*domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	// Try to get from cache first
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
		} else if cachedUser != nil {
			log.Debug("user retrieved from cache", zap.String("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	result, err, _ := r.group.Do("user:"+id, func() (any, error) {
		// Double-check cache in case another request populated it while we were waiting
		if r.cache != nil {
			cachedUser, err := r.cache.Get(ctx, id)
			if err == nil && cachedUser != nil {
				log.Debug("user retrieved from cache after single-flight wait", zap.String("id", id))
				return cachedUser, nil
			}
		}

		// Only one request hits database
		seen := r.writeVersion(id)
		u, err := r.dbRepo.RetrieveByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.writeVersion(id) != seen {
			log.Debug("user written during read, skipping cache fill", zap.String("id", id))
			return u, nil
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
			}
		}

		return u, nil
	})
	if err != nil {
		return nil, err
	}

	// shared results must not be mutated by callers
	u := *result.(*domain.User)
	return &u, nil
}

// FindByEmail delegates to the DB repository; records holding the hash are never cached.
func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.FindByEmail(ctx, email)
}

// Save delegates to the DB repository.
func (r *CachedUserRepository) Save(ctx context.Context, u *domain.User) error {
	return r.dbRepo.Save(ctx, u)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, patch domain.Patch, id string) error {
	if err := r.dbRepo.Update(ctx, patch, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "update")
	return nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "delete")
	return nil
}

// ChangePassword stores the new hash and invalidates the cache so updatedAt is fresh.
func (r *CachedUserRepository) ChangePassword(ctx context.Context, id, passwordHash string) error {
	if err := r.dbRepo.ChangePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	r.invalidate(ctx, id, "change password")
	return nil
}

// StatusToggle flips the status in DB and invalidates the cache when a row matched.
func (r *CachedUserRepository) StatusToggle(ctx context.Context, id string) (bool, error) {
	ok, err := r.dbRepo.StatusToggle(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	r.invalidate(ctx, id, "status toggle")
	return true, nil
}

func (r *CachedUserRepository) stripe(id string) *atomic.Uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.writes[h.Sum32()%writeStripes]
}

func (r *CachedUserRepository) writeVersion(id string) uint64 {
	return r.stripe(id).Load()
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, op string) {
	r.stripe(id).Add(1)
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to invalidate cache after "+op, zap.String("id", id), zap.Error(err))
	}
}
