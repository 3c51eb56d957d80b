package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// In-memory fakes standing in for the MySQL repositories and the Redis
// store. They implement just enough semantics for the service tests:
// soft delete via DeletedAt, duplicate email detection, single live
// refresh token per user.

type fakeUsers struct {
	mu       sync.Mutex
	rows     map[uint64]*model.User
	nextID   uint64
	getCalls int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[uint64]*model.User{}}
}

func (f *fakeUsers) clone(u *model.User) *model.User {
	cp := *u
	cp.Roles = append([]model.Role(nil), u.Roles...)
	return &cp
}

func (f *fakeUsers) Create(_ context.Context, firstName, lastName, email, passwordHash string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return nil, repository.ErrEmailExists
		}
	}
	f.nextID++
	now := time.Now().UTC()
	u := &model.User{
		ID:           f.nextID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.rows[u.ID] = u
	return f.clone(u), nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	u, ok := f.rows[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	return f.clone(u), nil
}

func (f *fakeUsers) GetByIDWithRoles(ctx context.Context, id uint64) (*model.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) GetByEmailWithRoles(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email && u.DeletedAt == nil {
			return f.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, q repository.ListQuery) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.User
	for _, u := range f.rows {
		if q.Filter == repository.FilterActive && u.DeletedAt != nil {
			continue
		}
		if q.Filter == repository.FilterTrashed && u.DeletedAt == nil {
			continue
		}
		if q.Search != "" && !strings.Contains(u.Email, q.Search) {
			continue
		}
		all = append(all, *f.clone(u))
	}
	total := len(all)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeUsers) Update(_ context.Context, id uint64, firstName, lastName, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	for _, other := range f.rows {
		if other.ID != id && other.Email == email {
			return nil, repository.ErrEmailExists
		}
	}
	u.FirstName, u.LastName, u.Email = firstName, lastName, email
	u.UpdatedAt = time.Now().UTC()
	return f.clone(u), nil
}

func (f *fakeUsers) Trash(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return f.clone(u), nil
}

func (f *fakeUsers) Restore(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok || u.DeletedAt == nil {
		return nil, repository.ErrNotFound
	}
	u.DeletedAt = nil
	return f.clone(u), nil
}

func (f *fakeUsers) HardDelete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRoles struct {
	mu     sync.Mutex
	rows   map[uint64]*model.Role
	nextID uint64
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{rows: map[uint64]*model.Role{}}
	for _, n := range names {
		f.nextID++
		f.rows[f.nextID] = &model.Role{ID: f.nextID, Name: n}
	}
	return f
}

func (f *fakeRoles) Create(_ context.Context, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == name {
			return nil, repository.ErrRoleExists
		}
	}
	f.nextID++
	r := &model.Role{ID: f.nextID, Name: name}
	f.rows[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) GetByID(_ context.Context, id uint64) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) GetByName(_ context.Context, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == name && r.DeletedAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoles) List(_ context.Context, q repository.ListQuery) ([]model.Role, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Role
	for _, r := range f.rows {
		all = append(all, *r)
	}
	return all, len(all), nil
}

func (f *fakeRoles) Update(_ context.Context, id uint64, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	r.Name = name
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) Trash(_ context.Context, id uint64) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	now := time.Now().UTC()
	r.DeletedAt = &now
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) Restore(_ context.Context, id uint64) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.DeletedAt == nil {
		return nil, repository.ErrNotFound
	}
	r.DeletedAt = nil
	cp := *r
	return &cp, nil
}

func (f *fakeRoles) HardDelete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeUserRoles struct {
	mu    sync.Mutex
	links map[[2]uint64]bool
}

func newFakeUserRoles() *fakeUserRoles {
	return &fakeUserRoles{links: map[[2]uint64]bool{}}
}

func (f *fakeUserRoles) Assign(_ context.Context, userID, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[[2]uint64{userID, roleID}] = true
	return nil
}

func (f *fakeUserRoles) Remove(_ context.Context, userID, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint64{userID, roleID}
	if !f.links[key] {
		return repository.ErrNotFound
	}
	delete(f.links, key)
	return nil
}

func (f *fakeUserRoles) HasRole(_ context.Context, userID, roleID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[[2]uint64{userID, roleID}], nil
}

func (f *fakeUserRoles) ListByUser(_ context.Context, userID uint64) ([]model.UserRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserRole
	for key := range f.links {
		if key[0] == userID {
			out = append(out, model.UserRole{UserID: key[0], RoleID: key[1]})
		}
	}
	return out, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	rows    []*model.RefreshToken
	nextID  uint64
	findErr error
}

func (f *fakeTokens) Rotate(_ context.Context, userID uint64, token string, expiresAt time.Time) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range f.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			del := now
			r.DeletedAt = &del
		}
	}
	f.nextID++
	row := &model.RefreshToken{ID: f.nextID, UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeTokens) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.rows {
		if r.Token == token && r.DeletedAt == nil {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range f.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			del := now
			r.DeletedAt = &del
		}
	}
	return nil
}

func (f *fakeTokens) liveCount(userID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory cache.Store.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]string{}} }

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return 0, nil
	}
	delete(s.data, key)
	return 1, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}
