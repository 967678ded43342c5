package utils // package utils provides helpers for staff tokens and booking secrets

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles carried in the "role" claim.
const (
	RoleStaff = "STAFF"
	RoleAdmin = "ADMIN"
)

// AccessToken represents a signed staff JWT along with its expiry.  The
// Token field is sent by staff tooling in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// StaffClaims are the claims of a staff session token.  Subject holds the
// staff member's display name, which is recorded as AdmittedBy and
// AllocatedBy on audit rows.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ErrBadRole is returned when minting a token for an unknown role.
var ErrBadRole = errors.New("utils: role must be STAFF or ADMIN")

// NewStaffToken builds and signs an HS256 JWT for a staff member.  now is
// the issue time; ttl controls how long the token remains valid.
func NewStaffToken(secret, subject, role string, ttl time.Duration, now time.Time) (AccessToken, error) {
	if role != RoleStaff && role != RoleAdmin {
		return AccessToken{}, ErrBadRole
	}
	now = now.UTC()
	exp := now.Add(ttl)
	claims := StaffClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
