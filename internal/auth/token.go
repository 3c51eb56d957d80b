package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sanedge/user-management-api/internal/model"
)

// Subject markers distinguishing the two token kinds inside claims.
const (
	SubjectAccess  = "access"
	SubjectRefresh = "refresh"
)

// Issuer builds and signs HS256 JWTs. Access tokens carry the identity
// and role names used for authorization at the HTTP boundary; refresh
// tokens carry only the owner id and a unique jti so rotations can be
// told apart.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer constructs an Issuer. TTLs follow the configured policy:
// access tokens in minutes, refresh tokens in days.
func NewIssuer(secret string, accessTTLMin, refreshTTLDays int) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// RefreshTTL exposes the configured refresh lifetime so the rotation
// policy can compute expiry timestamps for persisted rows.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs an access token for the user, embedding email and
// role names. Returns the token string and its expiry.
func (i *Issuer) IssueAccess(u *model.User) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.accessTTL)
	claims := jwt.MapClaims{
		"sub":       SubjectAccess,
		"userId":    u.ID,
		"email":     u.Email,
		"roleNames": u.RoleNames(),
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh signs a refresh token bound to the user id and jti.
func (i *Issuer) IssueRefresh(userID uint64, jti string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.refreshTTL)
	claims := jwt.MapClaims{
		"sub":    SubjectRefresh,
		"userId": userID,
		"jti":    jti,
		"exp":    exp.Unix(),
		"iat":    now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
