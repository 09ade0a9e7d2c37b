package user

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-management-service/internal/adapter/db/memory"
	domain "user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"
)

func setupStoreUsecase(t *testing.T) *Usecase {
	log := zaptest.NewLogger(t)
	return New(memory.NewUserRepo(log), log)
}

func TestStore_CreateThenGet(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, CreateUserRequest{Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := uc.GetUser(ctx, GetUserRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestStore_DuplicateEmailInAnyCaseLeavesStoreUnchanged(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, CreateUserRequest{Name: "John", Surname: "Doe", Email: "john@example.com"})
	require.NoError(t, err)

	_, err = uc.CreateUser(ctx, CreateUserRequest{Name: "Other", Surname: "Person", Email: "JOHN@EXAMPLE.COM"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))

	all, err := uc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Users, 1)
}

func TestStore_UpdateConflictLeavesTargetUnmodified(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	john, err := uc.CreateUser(ctx, CreateUserRequest{Name: "John", Surname: "Doe", Email: "john@example.com"})
	require.NoError(t, err)
	_, err = uc.CreateUser(ctx, CreateUserRequest{Name: "Jane", Surname: "Roe", Email: "jane@example.com"})
	require.NoError(t, err)

	_, err = uc.UpdateUser(ctx, UpdateUserRequest{ID: john.ID, Surname: "Changed", Email: "Jane@Example.com", Mode: UpdateModePartial})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))

	got, err := uc.GetUser(ctx, GetUserRequest{ID: john.ID})
	require.NoError(t, err)
	assert.Equal(t, "Doe", got.Surname)
	assert.Equal(t, "john@example.com", got.Email)
}

func TestStore_UpdateToOwnEmailIsAllowed(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	john, err := uc.CreateUser(ctx, CreateUserRequest{Name: "John", Surname: "Doe", Email: "john@example.com"})
	require.NoError(t, err)

	updated, err := uc.UpdateUser(ctx, UpdateUserRequest{
		ID: john.ID, Name: "John", Surname: "Updated", Email: "john@example.com", Mode: UpdateModeFull,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Surname)
}

func TestStore_DeleteTwice(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	john, err := uc.CreateUser(ctx, CreateUserRequest{Name: "John", Surname: "Doe", Email: "john@example.com"})
	require.NoError(t, err)

	_, err = uc.DeleteUser(ctx, DeleteUserRequest{ID: john.ID})
	require.NoError(t, err)

	_, err = uc.DeleteUser(ctx, DeleteUserRequest{ID: john.ID})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = uc.GetUser(ctx, GetUserRequest{ID: john.ID})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_SearchIsExact(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	for i, name := range []string{"Ann", "Anna", "Ann"} {
		_, err := uc.CreateUser(ctx, CreateUserRequest{Name: name, Surname: "S", Email: fmt.Sprintf("u%d@example.com", i)})
		require.NoError(t, err)
	}

	resp, err := uc.SearchUsers(ctx, SearchUsersRequest{Field: domain.FieldName, Value: "Ann"})
	require.NoError(t, err)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, int64(1), resp.Users[0].ID)
	assert.Equal(t, int64(3), resp.Users[1].ID)
}

func TestStore_ConcurrentCreatesWithSameEmail(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.CreateUser(ctx, CreateUserRequest{
				Name:    fmt.Sprintf("User%d", i),
				Surname: "Racer",
				Email:   "race@example.com",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.IsAlreadyExists(err) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestStore_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	uc := setupStoreUsecase(t)
	ctx := context.Background()

	const workers = 20
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := uc.CreateUser(ctx, CreateUserRequest{Name: "N", Surname: "S", Email: fmt.Sprintf("w%d@example.com", i)})
			if err == nil {
				ids <- u.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}
