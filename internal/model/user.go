package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorization roles stored in `user`.role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultRole is applied by the database when no role is given.
const DefaultRole = RoleUser

// Roles returns every valid role in declaration order.
func Roles() []Role { return []Role{RoleUser, RoleAdmin} }

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole converts s into a Role.  Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src any) error {
	s, err := enumString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User represents a row of the `user` table.  It is the root identity:
// every per-user row references User.ID and is removed with it.
//
// Fields:
//  ID            – opaque identifier (UUID generated by the application).
//  Name          – optional display name.
//  Email         – email address; required.
//  EmailVerified – when the address was verified (nil if never).
//  Image         – optional avatar URL.
//  Role          – user or admin.
type User struct {
	ID            string     // user.id
	Name          *string    // user.name (nullable)
	Email         string     // user.email
	EmailVerified *time.Time // user.emailVerified (nullable, fsp 3)
	Image         *string    // user.image (nullable)
	Role          Role       // user.role
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Account is an external identity linked to a user, keyed by
// (Provider, ProviderAccountID).  The OAuth token columns are stored as
// handed over by the identity provider.
type Account struct {
	UserID            string  // account.userId
	Type              string  // account.type (oauth, oidc, email, ...)
	Provider          string  // account.provider
	ProviderAccountID string  // account.providerAccountId
	RefreshToken      *string // account.refresh_token
	AccessToken       *string // account.access_token
	ExpiresAt         *int64  // account.expires_at (unix seconds)
	TokenType         *string // account.token_type
	Scope             *string // account.scope
	IDToken           *string // account.id_token (up to 2048 chars)
	SessionState      *string // account.session_state
}

// Session maps a session token to a user until Expires.  The token
// column holds a SHA-256 digest; the raw token only exists client side.
type Session struct {
	SessionToken string    // session.sessionToken
	UserID       string    // session.userId
	Expires      time.Time // session.expires
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.Expires) }

// VerificationToken is a short-lived (identifier, token) pair used for
// passwordless email sign-in.  Token is stored hashed.
type VerificationToken struct {
	Identifier string    // verificationToken.identifier
	Token      string    // verificationToken.token
	Expires    time.Time // verificationToken.expires
}
