package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"authhub/internal/domain"
	"authhub/internal/pkg/token"

	"gorm.io/gorm"
)

type RequestResult struct {
	Status string
}

const (
	StatusAccepted        = "accepted"
	StatusVerified        = "verified"
	StatusAlreadyVerified = "already_verified"
)

// RequestEmailVerification issues (or reissues) an email-verify token.
// Unknown and already-verified emails get the same neutral ack; only the
// resend cooldown is allowed to surface, since it presumes a prior request
// and therefore leaks nothing new.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) (*RequestResult, error) {
	principal, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("verify/request: email not found (masked)")
			return &RequestResult{Status: StatusAccepted}, nil
		}
		return nil, err
	}

	if principal.EmailVerified {
		log.Printf("verify/request: already verified principal_id=%d", principal.ID)
		return &RequestResult{Status: StatusAccepted}, nil
	}

	now := s.now()
	current, err := s.verifications.GetByPrincipalAndPurpose(ctx, principal.ID, domain.PurposeEmailVerify)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		cooldownUntil := current.LastSentAt.Add(s.policy.ResendCooldown)
		if cooldownUntil.After(now) {
			return nil, &ResendCooldownError{RetryAfter: cooldownUntil.Sub(now)}
		}
	}

	raw, err := s.issueVerificationToken(ctx, principal.ID, domain.PurposeEmailVerify, s.policy.VerifyTokenTTL, now)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendEmailVerification(ctx, principal.Email, raw); err != nil {
		return nil, err
	}

	return &RequestResult{Status: StatusAccepted}, nil
}

// ConfirmEmailVerification consumes an email-verify token and flips the
// verified flag. Verifying an already-verified address reports
// already_verified instead of erroring.
func (s *Service) ConfirmEmailVerification(ctx context.Context, tokenRaw string) (*RequestResult, error) {
	hash := token.Hash(tokenRaw, s.pepper)

	row, err := s.verifications.GetByHash(ctx, hash, domain.PurposeEmailVerify)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerificationToken
		}
		return nil, err
	}

	now := s.now()
	principal, err := s.principals.GetByID(ctx, row.PrincipalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerificationToken
		}
		return nil, err
	}

	if principal.EmailVerified {
		return &RequestResult{Status: StatusAlreadyVerified}, nil
	}

	if !row.IsUsable(now) {
		return nil, ErrInvalidVerificationToken
	}
	err = s.principals.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.VerificationToken{}).
			Where("id = ? AND used_at IS NULL AND expires_at > ?", row.ID, now).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidVerificationToken
		}

		return tx.Model(&domain.Principal{}).
			Where("id = ?", principal.ID).
			Updates(map[string]any{
				"email_verified":    true,
				"email_verified_at": now,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &RequestResult{Status: StatusVerified}, nil
}

// RequestPasswordReset always answers with the same neutral ack, whether or
// not the email exists. A request inside the cooldown window is also
// acknowledged without reissuing, because a 429 here would confirm the
// account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*RequestResult, error) {
	principal, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("reset/request: email not found (masked)")
			return &RequestResult{Status: StatusAccepted}, nil
		}
		return nil, err
	}

	now := s.now()
	current, err := s.verifications.GetByPrincipalAndPurpose(ctx, principal.ID, domain.PurposePasswordReset)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && current.LastSentAt.Add(s.policy.ResendCooldown).After(now) {
		log.Printf("reset/request: cooldown active principal_id=%d", principal.ID)
		return &RequestResult{Status: StatusAccepted}, nil
	}

	raw, err := s.issueVerificationToken(ctx, principal.ID, domain.PurposePasswordReset, s.policy.ResetTokenTTL, now)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordReset(ctx, principal.Email, raw); err != nil {
		return nil, err
	}

	return &RequestResult{Status: StatusAccepted}, nil
}

// ConfirmPasswordReset consumes a reset token, swaps the credential and
// revokes every session, all in one transaction. Missing, expired and
// already-used tokens are externally indistinguishable.
func (s *Service) ConfirmPasswordReset(ctx context.Context, tokenRaw, newPassword string) error {
	hash := token.Hash(tokenRaw, s.pepper)

	row, err := s.verifications.GetByHash(ctx, hash, domain.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}

	if !row.IsUsable(s.now()) {
		return ErrInvalidVerificationToken
	}

	principal, err := s.principals.GetByID(ctx, row.PrincipalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	return s.principals.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.VerificationToken{}).
			Where("id = ? AND used_at IS NULL AND expires_at > ?", row.ID, now).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidVerificationToken
		}

		if err := tx.Model(&domain.Principal{}).
			Where("id = ?", principal.ID).
			Updates(map[string]any{
				"password_hash":         hashed,
				"failed_login_attempts": 0,
				"locked_until":          nil,
				"updated_at":            now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Session{}).
			Where("principal_id = ? AND revoked_at IS NULL", principal.ID).
			Update("revoked_at", now).Error
	})
}

func (s *Service) issueVerificationToken(ctx context.Context, principalID int64, purpose domain.TokenPurpose, ttl time.Duration, now time.Time) (string, error) {
	raw, hash, err := token.NewOpaque(s.pepper)
	if err != nil {
		return "", err
	}

	if err := s.verifications.Upsert(ctx, &domain.VerificationToken{
		PrincipalID: principalID,
		Purpose:     purpose,
		TokenHash:   hash,
		LastSentAt:  now,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		return "", err
	}

	return raw, nil
}
