package cached

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-management-service/internal/adapter/cache"
	domain "user-management-service/internal/domain/user"
	"user-management-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
// Only id lookups are cached; writes through this repository evict the entry.
//
// A lookup that read the database before a write must not put its copy in
// the cache after the write evicted it. Every eviction takes a sequence
// number, and a lookup only populates the cache if no eviction for its id
// happened since the lookup started.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	mu          sync.Mutex
	seq         uint64
	inFlight    int
	invalidated map[int64]uint64 // id -> seq of its last eviction, while lookups are in flight
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo:      dbRepo,
		cache:       cache,
		log:         log,
		invalidated: make(map[int64]uint64),
	}
}

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.Int64("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	result, err, _ := r.group.Do(cache.CacheKey(id), func() (any, error) {
		start := r.beginLoad()
		u, err := r.dbRepo.GetByID(ctx, id)
		r.finishLoad(ctx, id, start, u)
		if err != nil {
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not share the pointer
	out := *result.(*domain.User)
	return &out, nil
}

// GetByEmail delegates to the DB repository.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// ExistsByEmail delegates to the DB repository.
func (r *CachedUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.dbRepo.ExistsByEmail(ctx, email)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	r.evict(ctx, u.ID, "update")
	return updated, nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}

	r.evict(ctx, id, "delete")
	return nil
}

// List delegates to the DB repository.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}

// ListBy delegates to the DB repository.
func (r *CachedUserRepository) ListBy(ctx context.Context, field domain.Field, value string) ([]domain.User, error) {
	return r.dbRepo.ListBy(ctx, field, value)
}

// beginLoad registers a database lookup and returns the sequence it started at.
func (r *CachedUserRepository) beginLoad() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inFlight++
	return r.seq
}

// finishLoad caches u unless id was evicted after start. u may be nil when the
// lookup failed.
func (r *CachedUserRepository) finishLoad(ctx context.Context, id int64, start uint64, u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inFlight--
	defer func() {
		if r.inFlight == 0 {
			clear(r.invalidated)
		}
	}()

	if u == nil || r.cache == nil {
		return
	}
	if r.invalidated[id] > start {
		r.log.Debug("skipping cache fill, user changed during lookup", zap.Int64("id", id))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
	}
}

// evict removes the cached user. It runs under the same lock as finishLoad so a
// fill and an eviction of the same id never interleave.
func (r *CachedUserRepository) evict(ctx context.Context, id int64, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	if r.inFlight > 0 {
		r.invalidated[id] = r.seq
	}

	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
	}
}
