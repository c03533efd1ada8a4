package domain

import "time"

type TokenPurpose string

const (
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// VerificationToken is a short-lived single-use artifact proving control of
// an email address (email_verify) or authorization to reset a password
// (password_reset). Only SHA-256(raw+pepper) is stored.
//
// One row exists per (principal, purpose); a resend upserts the row with a
// fresh hash, so only the newest token can ever match.
type VerificationToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	PrincipalID int64        `json:"principal_id" gorm:"uniqueIndex:idx_verification_principal_purpose;not null"`
	Purpose     TokenPurpose `json:"purpose" gorm:"size:20;uniqueIndex:idx_verification_principal_purpose;not null"`

	TokenHash string `json:"-" gorm:"size:64;index;not null"`

	ResendCount int       `json:"-" gorm:"not null;default:0"`
	LastSentAt  time.Time `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"-"`
}

func (VerificationToken) TableName() string { return "verification_tokens" }

// IsUsable reports whether the token can still be consumed. This is only a
// fast-path check; consumption itself must go through a conditional update
// so that two concurrent confirmations cannot both succeed.
func (t *VerificationToken) IsUsable(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}
