package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountSuspended   = errors.New("account suspended")

	// ErrInvalidRefreshToken covers malformed, expired, revoked and
	// rotated-away refresh tokens alike; callers must not be able to tell
	// which one it was.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRefreshTokenReused is surfaced to the HTTP layer as the same 401 as
	// ErrInvalidRefreshToken; it exists so replay detection can be logged
	// distinctly.
	ErrRefreshTokenReused = errors.New("refresh token reused")

	// ErrInvalidVerificationToken is deliberately generic: expired, already
	// used and never-existed tokens are indistinguishable from outside.
	ErrInvalidVerificationToken = errors.New("invalid or expired token")

	ErrSamePassword      = errors.New("new password must differ from current password")
	ErrPrincipalNotFound = errors.New("principal not found")
)

// ResendCooldownError reports how long the caller has to wait before
// another verification email may be sent.
type ResendCooldownError struct {
	RetryAfter time.Duration
}

func (e *ResendCooldownError) Error() string {
	return fmt.Sprintf("resend cooldown active, retry after %s", e.RetryAfter)
}
