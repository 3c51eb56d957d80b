package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// RenewalThreshold is the policy constant deciding when a presented
// refresh token counts as expiring soon: within one day of its expiry
// it is replaced instead of reused.
const RenewalThreshold = 24 * time.Hour

// ErrInvalidRefreshToken is returned when a presented refresh token is
// unknown, revoked or already expired.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// TokenStore is the persistence contract the rotation policy needs.
// *repository.TokenRepo satisfies it. FindByToken reports an absent or
// revoked token with repository.ErrNotFound; any other error is a
// transport failure.
type TokenStore interface {
	Rotate(ctx context.Context, userID uint64, token string, expiresAt time.Time) (*model.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RotationPolicy enforces the single-live-token-per-user invariant and
// decides when a presented refresh token must be rotated.
type RotationPolicy struct {
	store  TokenStore
	issuer *Issuer
	now    func() time.Time
}

func NewRotationPolicy(store TokenStore, issuer *Issuer) *RotationPolicy {
	return &RotationPolicy{store: store, issuer: issuer, now: time.Now}
}

// OnLogin mints a fresh refresh token for the user. The store's Rotate
// revokes any previous live token and inserts the new one atomically,
// so a failed revocation can never leave two live tokens behind.
func (p *RotationPolicy) OnLogin(ctx context.Context, userID uint64) (*model.RefreshToken, error) {
	token, exp, err := p.issuer.IssueRefresh(userID, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return p.store.Rotate(ctx, userID, token, exp)
}

// OnRefresh validates a presented token string and applies the renewal
// rule. When the token is live and not close to expiry it is returned
// unchanged with rotated=false; when it is within RenewalThreshold of
// expiry it is replaced by a fresh token with a new jti and
// rotated=true. Unknown, revoked or expired tokens yield
// ErrInvalidRefreshToken; store transport failures propagate unchanged
// so callers never mistake an outage for a bad token.
func (p *RotationPolicy) OnRefresh(ctx context.Context, presented string) (*model.RefreshToken, bool, error) {
	existing, err := p.store.FindByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrInvalidRefreshToken
		}
		return nil, false, fmt.Errorf("refresh token lookup: %w", err)
	}
	now := p.now().UTC()
	if !existing.Live(now) {
		return nil, false, ErrInvalidRefreshToken
	}
	// expiring-soon means expiry - threshold < now; the boundary
	// instant itself still counts as fresh.
	if !existing.ExpiresAt.Add(-RenewalThreshold).Before(now) {
		return existing, false, nil
	}
	token, exp, err := p.issuer.IssueRefresh(existing.UserID, uuid.NewString())
	if err != nil {
		return nil, false, err
	}
	replacement, err := p.store.Rotate(ctx, existing.UserID, token, exp)
	if err != nil {
		return nil, false, err
	}
	return replacement, true, nil
}

// OnLogout revokes every live token of the user. Calling it again when
// nothing is live is a no-op, keeping logout idempotent.
func (p *RotationPolicy) OnLogout(ctx context.Context, userID uint64) error {
	return p.store.RevokeAllForUser(ctx, userID)
}
