package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// fakeTokenStore keeps refresh tokens in memory and mimics the atomic
// revoke-then-insert behavior of the real repository. Setting findErr
// makes every lookup fail, simulating a store outage.
type fakeTokenStore struct {
	rows    []*model.RefreshToken
	nextID  uint64
	now     func() time.Time
	findErr error
}

func newFakeTokenStore(now func() time.Time) *fakeTokenStore {
	return &fakeTokenStore{now: now}
}

func (s *fakeTokenStore) Rotate(_ context.Context, userID uint64, token string, expiresAt time.Time) (*model.RefreshToken, error) {
	ts := s.now().UTC()
	for _, r := range s.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			del := ts
			r.DeletedAt = &del
		}
	}
	s.nextID++
	row := &model.RefreshToken{
		ID:        s.nextID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.rows = append(s.rows, row)
	return row, nil
}

func (s *fakeTokenStore) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, r := range s.rows {
		if r.Token == token && r.DeletedAt == nil {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	ts := s.now().UTC()
	for _, r := range s.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			del := ts
			r.DeletedAt = &del
		}
	}
	return nil
}

func (s *fakeTokenStore) liveCount(userID uint64) int {
	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && r.DeletedAt == nil {
			n++
		}
	}
	return n
}

func newTestPolicy(frozen time.Time) (*RotationPolicy, *fakeTokenStore) {
	nowFn := func() time.Time { return frozen }
	store := newFakeTokenStore(nowFn)
	issuer := NewIssuer(testSecret, 60, 7)
	issuer.now = nowFn
	p := NewRotationPolicy(store, issuer)
	p.now = nowFn
	return p, store
}

func TestOnLoginSingleLiveToken(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	first, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)
	second, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, store.liveCount(1), "repeat logins must never leave two live tokens")
}

func TestOnRefreshUnknownToken(t *testing.T) {
	p, _ := newTestPolicy(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	_, _, err := p.OnRefresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestOnRefreshRevokedToken(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, _ := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, p.OnLogout(ctx, 1))

	_, _, err = p.OnRefresh(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestOnRefreshExpiredToken(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)
	// Push the clock past expiry.
	p.now = func() time.Time { return tok.ExpiresAt.Add(time.Second) }

	_, _, err = p.OnRefresh(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 1, store.liveCount(1), "an invalid presentation must not mint a replacement")
}

func TestOnRefreshFarFromExpiryReuses(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)

	got, rotated, err := p.OnRefresh(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, rotated)
	assert.Equal(t, tok.Token, got.Token)
	assert.Equal(t, 1, store.liveCount(1))
}

func TestOnRefreshNearExpiryRotates(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)
	// Move to one hour before expiry: inside the renewal window.
	p.now = func() time.Time { return tok.ExpiresAt.Add(-time.Hour) }

	got, rotated, err := p.OnRefresh(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.NotEqual(t, tok.Token, got.Token)
	assert.Equal(t, 1, store.liveCount(1), "rotation must revoke the old token atomically")

	// The old token is dead now.
	_, _, err = p.OnRefresh(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestOnRefreshExactThresholdBoundary(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, _ := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)

	// Exactly at expiry - threshold the token does not yet count as
	// expiring soon, so it is reused.
	p.now = func() time.Time { return tok.ExpiresAt.Add(-RenewalThreshold) }
	got, rotated, err := p.OnRefresh(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, rotated)
	assert.Equal(t, tok.Token, got.Token)

	// One second past the boundary it rotates.
	p.now = func() time.Time { return tok.ExpiresAt.Add(-RenewalThreshold).Add(time.Second) }
	_, rotated, err = p.OnRefresh(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, rotated)
}

func TestOnRefreshStoreOutage(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	tok, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)

	// A transport failure must not be mistaken for a bad token.
	store.findErr = errors.New("connection refused")
	_, _, err = p.OnRefresh(ctx, tok.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
	assert.ErrorContains(t, err, "connection refused")
}

func TestOnLogoutIdempotent(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, store := newTestPolicy(frozen)
	ctx := context.Background()

	_, err := p.OnLogin(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, p.OnLogout(ctx, 1))
	require.NoError(t, p.OnLogout(ctx, 1))
	assert.Equal(t, 0, store.liveCount(1))
}
