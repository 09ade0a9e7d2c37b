package memory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"user-management-service/internal/domain/user"
)

// UserRepo is an ephemeral, in-process user store. Records live in a slice in
// insertion order, which is also id order, and every lookup is a linear scan.
type UserRepo struct {
	mu     sync.RWMutex
	users  []user.User
	nextID int64
	log    *zap.Logger
}

// NewUserRepo creates an empty store whose first assigned id is 1.
func NewUserRepo(log *zap.Logger) *UserRepo {
	return &UserRepo{nextID: 1, log: log}
}

// Create appends a copy of u with the next id. Ids are never handed out twice.
func (r *UserRepo) Create(_ context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *u
	rec.ID = r.nextID
	r.nextID++
	r.users = append(r.users, rec)

	r.log.Debug("user stored in memory", zap.Int64("id", rec.ID))
	out := rec
	return &out, nil
}

// GetByID returns a copy of the user with the given id.
func (r *UserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, user.NotFoundByID(id)
	}
	out := r.users[i]
	return &out, nil
}

// GetByEmail returns the user owning email, compared case-insensitively, or nil.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if user.SameEmail(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

// ExistsByEmail reports whether any user owns email, compared case-insensitively.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

// Update overwrites the stored fields of u.ID with those of u.
func (r *UserRepo) Update(_ context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(u.ID)
	if i < 0 {
		return nil, user.NotFoundByID(u.ID)
	}
	r.users[i] = *u

	out := r.users[i]
	return &out, nil
}

// Delete removes the user with the given id.
func (r *UserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return user.NotFoundByID(id)
	}
	r.users = append(r.users[:i], r.users[i+1:]...)

	r.log.Debug("user removed from memory", zap.Int64("id", id))
	return nil
}

// List returns a copy of every stored user.
func (r *UserRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// ListBy returns the users whose field equals value exactly.
func (r *UserRepo) ListBy(_ context.Context, field user.Field, value string) ([]user.User, error) {
	if !field.Valid() {
		return nil, errors.New("unsupported search field: " + string(field))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0)
	for i := range r.users {
		if field.Value(&r.users[i]) == value {
			out = append(out, r.users[i])
		}
	}
	return out, nil
}

// indexOf must be called with mu held.
func (r *UserRepo) indexOf(id int64) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}
