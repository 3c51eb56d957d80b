package model

// Session is the cache-resident snapshot written under session:<userID>
// after a successful login or refresh. It is derived state only: it may
// be evicted or stale at any time because authorization decisions can
// always be re-derived from the database.
type Session struct {
	UserID       uint64   `json:"user_id"`
	Email        string   `json:"email"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	RoleNames    []string `json:"role_names"`
}
