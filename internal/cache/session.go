package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sanedge/user-management-api/internal/config"
	"github.com/sanedge/user-management-api/internal/model"
)

// SessionCache is the cache-aside layer over Store. It keeps session
// snapshots under session:<userID> and entity projections under
// user:<id> and role:<id>. Writes overwrite unconditionally
// (last-writer-wins); reads that hit a corrupt payload are logged and
// treated as misses so callers fall through to the database.
type SessionCache struct {
	store Store
	cfg   config.CacheConfig
}

// NewSessionCache wraps the store. A nil store means Redis is not
// configured; every read misses and every write succeeds silently, so
// callers always fall through to the database.
func NewSessionCache(store Store, cfg config.CacheConfig) *SessionCache {
	if store == nil {
		store = noopStore{}
	}
	return &SessionCache{store: store, cfg: cfg}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) (string, error)              { return "", ErrMiss }
func (noopStore) Set(context.Context, string, string, time.Duration) error { return nil }
func (noopStore) Delete(context.Context, string) (int64, error)            { return 0, nil }
func (noopStore) Exists(context.Context, string) (bool, error)             { return false, nil }

func sessionKey(userID uint64) string { return fmt.Sprintf("session:%d", userID) }
func userKey(id uint64) string        { return fmt.Sprintf("user:%d", id) }
func roleKey(id uint64) string        { return fmt.Sprintf("role:%d", id) }

// WriteSession upserts the session snapshot. During login this call is
// on the critical path: the caller fails the whole login if it errors.
func (c *SessionCache) WriteSession(ctx context.Context, s model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, sessionKey(s.UserID), string(raw), c.cfg.SessionTTL)
}

// ReadSession returns the cached snapshot for the user, or ErrMiss.
func (c *SessionCache) ReadSession(ctx context.Context, userID uint64) (*model.Session, error) {
	raw, err := c.store.Get(ctx, sessionKey(userID))
	if err != nil {
		return nil, err
	}
	var s model.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// Corruption is not an ordinary miss; make it stand out in the
		// logs so operators notice, but still fall back to the store.
		log.Printf("cache: CORRUPT payload under %s: %v (treated as miss)", sessionKey(userID), err)
		return nil, ErrMiss
	}
	return &s, nil
}

// DeleteSession removes the session snapshot; absent keys are fine.
func (c *SessionCache) DeleteSession(ctx context.Context, userID uint64) error {
	_, err := c.store.Delete(ctx, sessionKey(userID))
	return err
}

// WriteUser stores the user projection. Callers treat failures as
// non-fatal and only log them.
func (c *SessionCache) WriteUser(ctx context.Context, u *model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, userKey(u.ID), string(raw), c.cfg.UserTTL)
}

// ReadUser returns the cached projection or ErrMiss; corrupt payloads
// count as misses.
func (c *SessionCache) ReadUser(ctx context.Context, id uint64) (*model.User, error) {
	raw, err := c.store.Get(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Printf("cache: CORRUPT payload under %s: %v (treated as miss)", userKey(id), err)
		return nil, ErrMiss
	}
	return &u, nil
}

// InvalidateUser drops the user projection after a mutation.
func (c *SessionCache) InvalidateUser(ctx context.Context, id uint64) error {
	_, err := c.store.Delete(ctx, userKey(id))
	return err
}

// WriteRole stores the role projection.
func (c *SessionCache) WriteRole(ctx context.Context, role *model.Role) error {
	raw, err := json.Marshal(role)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, roleKey(role.ID), string(raw), c.cfg.RoleTTL)
}

// ReadRole returns the cached projection or ErrMiss; corrupt payloads
// count as misses.
func (c *SessionCache) ReadRole(ctx context.Context, id uint64) (*model.Role, error) {
	raw, err := c.store.Get(ctx, roleKey(id))
	if err != nil {
		return nil, err
	}
	var role model.Role
	if err := json.Unmarshal([]byte(raw), &role); err != nil {
		log.Printf("cache: CORRUPT payload under %s: %v (treated as miss)", roleKey(id), err)
		return nil, ErrMiss
	}
	return &role, nil
}

// InvalidateRole drops the role projection after a mutation.
func (c *SessionCache) InvalidateRole(ctx context.Context, id uint64) error {
	_, err := c.store.Delete(ctx, roleKey(id))
	return err
}

// HasSession reports whether a live session snapshot exists.
func (c *SessionCache) HasSession(ctx context.Context, userID uint64) (bool, error) {
	return c.store.Exists(ctx, sessionKey(userID))
}
