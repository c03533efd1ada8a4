package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"authhub/internal/domain"
	"authhub/internal/mailer"
	"authhub/internal/pkg/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Policy bundles the TTLs and limits the lifecycle rules depend on.
type Policy struct {
	RefreshTTL           time.Duration
	RememberMeRefreshTTL time.Duration
	ResetTokenTTL        time.Duration
	VerifyTokenTTL       time.Duration
	ResendCooldown       time.Duration
	LockoutThreshold     int
	LockoutWindow        time.Duration
}

// Service contains all business logic for the authentication lifecycle.
type Service struct {
	principals    PrincipalRepositoryInterface
	sessions      SessionRepositoryInterface
	verifications VerificationTokenRepositoryInterface
	jwt           jwtService
	mailer        mailer.Mailer
	pepper        string
	policy        Policy
	now           func() time.Time
}

type LoginResult struct {
	Principal *domain.Principal
	Tokens    *TokenPair
}

func NewService(
	principals PrincipalRepositoryInterface,
	sessions SessionRepositoryInterface,
	verifications VerificationTokenRepositoryInterface,
	jwt jwtService,
	m mailer.Mailer,
	pepper string,
	policy Policy,
) *Service {
	return &Service{
		principals:    principals,
		sessions:      sessions,
		verifications: verifications,
		jwt:           jwt,
		mailer:        m,
		pepper:        pepper,
		policy:        policy,
		now:           time.Now,
	}
}

// WithClock replaces the time source for deterministic expiry tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Join registers a new member principal and opens their first session.
// Email uniqueness rests on the DB unique index, not the pre-check: two
// concurrent joins with the same email race past ExistsByEmail, and the
// loser's Create comes back as a duplicate-key error.
func (s *Service) Join(ctx context.Context, req JoinRequest, userAgent, ip string) (*domain.Principal, *TokenPair, error) {
	exists, err := s.principals.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrEmailAlreadyExists
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	principal := &domain.Principal{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		Role:         domain.RoleMember,
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, principal, req.RememberMe, userAgent, ip, uuid.NewString(), nil)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.RequestEmailVerification(ctx, principal.Email); err != nil {
		// Joining still succeeds; the client can ask for a resend.
		log.Printf("join: verification request failed principal_id=%d: %v", principal.ID, err)
	}

	principal.PasswordHash = ""
	return principal, pair, nil
}

// Login authenticates by email+password. Unknown email and wrong password
// return the same ErrInvalidCredentials; nothing in the response may reveal
// which one it was.
func (s *Service) Login(ctx context.Context, req LoginRequest, userAgent, ip string) (*LoginResult, error) {
	principal, err := s.principals.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if principal.Suspended {
		return nil, ErrAccountSuspended
	}
	if principal.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(req.Password)); err != nil {
		failed := principal.FailedLoginAttempts + 1
		fields := map[string]any{"failed_login_attempts": failed}
		if failed >= s.policy.LockoutThreshold {
			fields["locked_until"] = now.Add(s.policy.LockoutWindow)
		}
		if updateErr := s.principals.UpdateFields(ctx, principal.ID, fields); updateErr != nil {
			return nil, updateErr
		}
		if failed >= s.policy.LockoutThreshold {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if principal.FailedLoginAttempts > 0 || principal.LockedUntil != nil {
		if err := s.principals.UpdateFields(ctx, principal.ID, map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}); err != nil {
			return nil, err
		}
	}

	pair, err := s.issueTokenPair(ctx, principal, req.RememberMe, userAgent, ip, uuid.NewString(), nil)
	if err != nil {
		return nil, err
	}

	principal.PasswordHash = ""
	return &LoginResult{Principal: principal, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the session.
// A used or revoked token presented again is replay: the whole family is
// revoked and the caller gets the same 401 as for any other bad token.
func (s *Service) Refresh(ctx context.Context, refreshRaw, userAgent, ip string) (*TokenPair, error) {
	now := s.now()
	hash := token.Hash(refreshRaw, s.pepper)

	current, err := s.sessions.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if current.IsExpired(now) {
		return nil, ErrInvalidRefreshToken
	}

	if current.UsedAt != nil || current.RevokedAt != nil {
		if err := s.flagReuse(ctx, current, now); err != nil {
			return nil, err
		}
		log.Printf("refresh: token reuse detected principal_id=%d family=%s", current.PrincipalID, current.FamilyID)
		return nil, ErrRefreshTokenReused
	}

	principal, err := s.principals.GetByID(ctx, current.PrincipalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Principal soft-deleted since issuance.
			_ = s.sessions.RevokeFamily(ctx, current.FamilyID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if principal.Suspended {
		if err := s.sessions.RevokeFamily(ctx, current.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	accessToken, accessExp, err := s.jwt.GenerateAccessToken(principal.ID, string(principal.Role))
	if err != nil {
		return nil, err
	}
	newRaw, newHash, err := token.NewOpaque(s.pepper)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(s.refreshTTLFor(current))
	var pair *TokenPair

	err = s.principals.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional consume: of two concurrent refreshes with the same
		// token, only one update matches.
		res := tx.Model(&domain.Session{}).
			Where("id = ? AND used_at IS NULL AND revoked_at IS NULL", current.ID).
			Updates(map[string]any{"used_at": now, "revoked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshTokenReused
		}

		rotatedFrom := current.ID
		return tx.Create(&domain.Session{
			PrincipalID:   current.PrincipalID,
			TokenHash:     newHash,
			JTI:           uuid.NewString(),
			FamilyID:      current.FamilyID,
			RotatedFromID: &rotatedFrom,
			ExpiresAt:     refreshExp,
			UserAgent:     nullableString(userAgent),
			IP:            nullableString(ip),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrRefreshTokenReused) {
			if flagErr := s.flagReuse(ctx, current, now); flagErr != nil {
				return nil, flagErr
			}
		}
		return nil, err
	}

	pair = newTokenPair(accessToken, newRaw, accessExp, refreshExp)
	return pair, nil
}

// Logout revokes the session behind one refresh token. Idempotent: unknown
// or already-revoked tokens succeed silently.
func (s *Service) Logout(ctx context.Context, refreshRaw string) error {
	hash := token.Hash(refreshRaw, s.pepper)

	session, err := s.sessions.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return s.sessions.Revoke(ctx, session.ID)
}

// LogoutAll revokes every outstanding session of the principal.
func (s *Service) LogoutAll(ctx context.Context, principalID int64) error {
	return s.sessions.RevokeAllForPrincipal(ctx, principalID)
}

// ChangePassword verifies the current password, then swaps the hash and
// revokes all sessions in one transaction: no reader may ever observe the
// new password alongside still-valid old sessions.
func (s *Service) ChangePassword(ctx context.Context, principalID int64, currentPassword, newPassword string) error {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPrincipalNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		return ErrSamePassword
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	return s.principals.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Principal{}).
			Where("id = ?", principal.ID).
			Updates(map[string]any{"password_hash": hashed, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Session{}).
			Where("principal_id = ? AND revoked_at IS NULL", principal.ID).
			Update("revoked_at", now).Error
	})
}

func (s *Service) GetCurrentPrincipal(ctx context.Context, principalID int64) (*domain.Principal, error) {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	principal.PasswordHash = ""
	return principal, nil
}

func (s *Service) UpdateProfile(ctx context.Context, principalID int64, req UpdateProfileRequest) (*domain.Principal, error) {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		principal.Name = req.Name
	}

	if err := s.principals.Update(ctx, principal); err != nil {
		return nil, err
	}

	principal.PasswordHash = ""
	return principal, nil
}

// issueTokenPair creates an access token plus a fresh session and returns
// the wire-shaped pair.
func (s *Service) issueTokenPair(ctx context.Context, principal *domain.Principal, rememberMe bool, userAgent, ip, familyID string, rotatedFrom *int64) (*TokenPair, error) {
	accessToken, accessExp, err := s.jwt.GenerateAccessToken(principal.ID, string(principal.Role))
	if err != nil {
		return nil, err
	}

	refreshRaw, refreshHash, err := token.NewOpaque(s.pepper)
	if err != nil {
		return nil, err
	}

	ttl := s.policy.RefreshTTL
	if rememberMe {
		ttl = s.policy.RememberMeRefreshTTL
	}
	refreshExp := s.now().Add(ttl)

	if err := s.sessions.Create(ctx, &domain.Session{
		PrincipalID:   principal.ID,
		TokenHash:     refreshHash,
		JTI:           uuid.NewString(),
		FamilyID:      familyID,
		RotatedFromID: rotatedFrom,
		ExpiresAt:     refreshExp,
		UserAgent:     nullableString(userAgent),
		IP:            nullableString(ip),
	}); err != nil {
		return nil, err
	}

	return newTokenPair(accessToken, refreshRaw, accessExp, refreshExp), nil
}

func (s *Service) refreshTTLFor(current *domain.Session) time.Duration {
	// A rotated session keeps its original lifetime class: sessions issued
	// with remember-me were created with the longer TTL.
	issued := current.ExpiresAt.Sub(current.CreatedAt)
	if issued > s.policy.RefreshTTL {
		return s.policy.RememberMeRefreshTTL
	}
	return s.policy.RefreshTTL
}

func (s *Service) flagReuse(ctx context.Context, current *domain.Session, now time.Time) error {
	if err := s.principals.DB().WithContext(ctx).Model(&domain.Session{}).
		Where("id = ?", current.ID).
		Update("reuse_detected_at", now).Error; err != nil {
		return err
	}
	return s.sessions.RevokeFamily(ctx, current.FamilyID)
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
