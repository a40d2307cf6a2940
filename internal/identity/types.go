// Package identity owns accounts, credentials, and the auth-state stream the
// rest of the platform observes.
package identity

import (
	"errors"
	"fmt"
	"time"
)

// User is a registered account. The username doubles as the display name
// shown on comments and the dashboard.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated identity components act on behalf of.
type Principal struct {
	UserID      string
	DisplayName string
}

var (
	// ErrInvalidCredentials is returned for both an unknown login and a wrong
	// password, so responses do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrConflict is returned when the email or username is already taken.
	ErrConflict = errors.New("identity: user already exists")
	// ErrInvalidRefresh covers unknown, expired, and revoked refresh tokens.
	ErrInvalidRefresh = errors.New("identity: invalid refresh token")
	// ErrNotFound is returned for reads of a user that does not exist.
	ErrNotFound = errors.New("identity: user not found")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("identity: invalid %s: %s", e.Field, e.Reason)
}
