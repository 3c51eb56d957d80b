package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each token
// belongs to exactly one user. At most one live (not soft-deleted, not
// expired) token exists per user; creating a new one revokes the prior
// one inside the same transaction.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Token     – signed refresh JWT as handed to the client.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
//  DeletedAt – revocation marker (nil while the token is live).
type RefreshToken struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Live reports whether the token is usable at the given instant.
func (t *RefreshToken) Live(now time.Time) bool {
	return t.DeletedAt == nil && now.Before(t.ExpiresAt)
}
