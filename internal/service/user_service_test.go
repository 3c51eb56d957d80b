package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanedge/user-management-api/internal/auth"
	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/config"
	"github.com/sanedge/user-management-api/internal/repository"
)

type userFixture struct {
	svc   *UserService
	users *fakeUsers
	store *fakeStore
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newFakeUsers()
	roles := newFakeRoles("ADMIN", "USER", "MANAGER")
	store := newFakeStore()
	sessions := cache.NewSessionCache(store, config.CacheConfig{
		SessionTTL: time.Hour,
		UserTTL:    30 * time.Minute,
		RoleTTL:    time.Hour,
	})
	return &userFixture{
		svc:   NewUserService(users, roles, newFakeUserRoles(), auth.NewHasher(bcrypt.MinCost), sessions),
		users: users,
		store: store,
	}
}

func (f *userFixture) create(t *testing.T, email string) uint64 {
	t.Helper()
	u, err := f.svc.Create(context.Background(), CreateUserInput{
		FirstName: "Jane", LastName: "Doe", Email: email, Password: "pw",
	})
	require.NoError(t, err)
	return u.ID
}

func TestCreateUserAssignsDefaultRole(t *testing.T) {
	f := newUserFixture(t)

	u, err := f.svc.Create(context.Background(), CreateUserInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, u.RoleNames())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	f.create(t, "jane@example.com")

	_, err := f.svc.Create(context.Background(), CreateUserInput{Email: "jane@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestGetByIDCachesOnMiss(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	before := f.users.getCalls
	u, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, before+1, f.users.getCalls)

	// Second read is served from cache; the store is not touched.
	_, err = f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.users.getCalls)
}

func TestGetByIDCorruptCacheFallsBack(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	// Poison the projection. The read must fall through to the database
	// and repopulate the entry.
	key := fmt.Sprintf("user:%d", id)
	require.NoError(t, f.store.Set(ctx, key, "{broken", time.Minute))

	u, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)

	raw, err := f.store.Get(ctx, key)
	require.NoError(t, err)
	assert.NotEqual(t, "{broken", raw)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateInvalidatesProjection(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	_, err := f.svc.GetByID(ctx, id) // populate cache
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, id, UpdateUserInput{FirstName: "Janet", LastName: "Doe", Email: "janet@example.com"})
	require.NoError(t, err)

	// Next read misses the cache and sees the new state.
	u, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "janet@example.com", u.Email)
}

func TestTrashRestoreLifecycle(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	trashed, err := f.svc.Trash(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, trashed.DeletedAt)

	// A trashed user is gone from active reads.
	_, err = f.svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Trashing again is a not-found, soft delete is not repeatable.
	_, err = f.svc.Trash(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)

	restored, err := f.svc.Restore(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	u, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
}

func TestRestoreActiveUserFails(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")

	_, err := f.svc.Restore(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHardDeleteEvictsEverything(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	_, err := f.svc.GetByID(ctx, id) // populate cache
	require.NoError(t, err)

	require.NoError(t, f.svc.HardDelete(ctx, id))

	_, err = f.svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHardDeleteUnknownUser(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.HardDelete(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListPagination(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		f.create(t, fmt.Sprintf("user%02d@example.com", i))
	}

	users, meta, err := f.svc.List(ctx, ListInput{Page: 2, PageSize: 10}, repository.FilterActive)
	require.NoError(t, err)
	assert.Len(t, users, 10)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.PageSize)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 25, meta.TotalRecords)
}

func TestListDefaults(t *testing.T) {
	f := newUserFixture(t)
	f.create(t, "jane@example.com")

	_, meta, err := f.svc.List(context.Background(), ListInput{Page: -1, PageSize: 0}, repository.FilterActive)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 10, meta.PageSize)
}

func TestRoleAssignmentLifecycle(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	// Creation attached the default role already.
	links, err := f.svc.ListRoles(ctx, id)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, uint64(1), links[0].RoleID)

	require.NoError(t, f.svc.AssignRole(ctx, id, 2))
	// Re-assigning the same role is a no-op, not an error.
	require.NoError(t, f.svc.AssignRole(ctx, id, 2))

	links, err = f.svc.ListRoles(ctx, id)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	require.NoError(t, f.svc.RemoveRole(ctx, id, 2))
	links, err = f.svc.ListRoles(ctx, id)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	err = f.svc.RemoveRole(ctx, id, 2)
	assert.ErrorIs(t, err, ErrRoleNotAssigned)
}

func TestRoleAssignmentValidatesBothSides(t *testing.T) {
	f := newUserFixture(t)
	id := f.create(t, "jane@example.com")
	ctx := context.Background()

	err := f.svc.AssignRole(ctx, id, 99)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	err = f.svc.AssignRole(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.ListRoles(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListTrashedFilter(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	keep := f.create(t, "keep@example.com")
	gone := f.create(t, "gone@example.com")
	_ = keep

	_, err := f.svc.Trash(ctx, gone)
	require.NoError(t, err)

	trashed, meta, err := f.svc.List(ctx, ListInput{}, repository.FilterTrashed)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, "gone@example.com", trashed[0].Email)
	assert.Equal(t, 1, meta.TotalRecords)

	_, metaAll, err := f.svc.List(ctx, ListInput{}, repository.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, 2, metaAll.TotalRecords)
}
