package auth

import (
	"context"
	"testing"
	"time"

	"authhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mock principal repository implementing the interface
type mockPrincipalRepo struct {
	mock.Mock
}

func (m *mockPrincipalRepo) Create(ctx context.Context, p *domain.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPrincipalRepo) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *mockPrincipalRepo) GetByID(ctx context.Context, id int64) (*domain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *mockPrincipalRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockPrincipalRepo) Update(ctx context.Context, p *domain.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPrincipalRepo) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *mockPrincipalRepo) DB() *gorm.DB {
	return &gorm.DB{} // dummy; transactional paths are covered by the e2e suite
}

// Mock session repository
type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSessionRepo) GetByHash(ctx context.Context, hash string) (*domain.Session, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func (m *mockSessionRepo) RevokeFamily(ctx context.Context, familyID string) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock verification token repository
type mockVerificationRepo struct {
	mock.Mock
}

func (m *mockVerificationRepo) Upsert(ctx context.Context, t *domain.VerificationToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockVerificationRepo) GetByPrincipalAndPurpose(ctx context.Context, principalID int64, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	args := m.Called(ctx, principalID, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationToken), args.Error(1)
}

func (m *mockVerificationRepo) GetByHash(ctx context.Context, hash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	args := m.Called(ctx, hash, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationToken), args.Error(1)
}

func (m *mockVerificationRepo) DeleteExpiredOrUsed(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock JWT service
type mockJWTService struct {
	mock.Mock
}

func (m *mockJWTService) GenerateAccessToken(principalID int64, role string) (string, time.Time, error) {
	args := m.Called(principalID, role)
	return args.String(0), time.Now().Add(time.Hour), args.Error(2)
}

// Mock mailer
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmailVerification(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func testPolicy() Policy {
	return Policy{
		RefreshTTL:           7 * 24 * time.Hour,
		RememberMeRefreshTTL: 30 * 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
		VerifyTokenTTL:       24 * time.Hour,
		ResendCooldown:       5 * time.Minute,
		LockoutThreshold:     5,
		LockoutWindow:        15 * time.Minute,
	}
}

func newTestService(principals *mockPrincipalRepo, sessions *mockSessionRepo, verifications *mockVerificationRepo, jwt *mockJWTService, m *mockMailer) *Service {
	return NewService(principals, sessions, verifications, jwt, m, "test-pepper", testPolicy())
}

func TestService_Join_Success(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	principals.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
	principals.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Principal).ID = 1
	}).Return(nil)
	jwtSvc.On("GenerateAccessToken", int64(1), "member").Return("fake-jwt-token", nil, nil)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
	// join triggers the first verification email
	principals.On("GetByEmail", mock.Anything, "new@example.com").Return(&domain.Principal{ID: 1, Email: "new@example.com"}, nil)
	verifications.On("GetByPrincipalAndPurpose", mock.Anything, int64(1), domain.PurposeEmailVerify).Return(nil, gorm.ErrRecordNotFound)
	verifications.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.On("SendEmailVerification", mock.Anything, "new@example.com", mock.Anything).Return(nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	principal, tokens, err := service.Join(context.Background(), JoinRequest{
		Name:     "Test Member",
		Email:    "new@example.com",
		Password: "ValidPassword123!",
	}, "test-agent", "127.0.0.1")

	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "fake-jwt-token", tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)
	assert.Empty(t, principal.PasswordHash)

	principals.AssertExpectations(t)
	sessions.AssertExpectations(t)
	verifications.AssertExpectations(t)
	m.AssertExpectations(t)
}

func TestService_Join_EmailExists(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	principals.On("ExistsByEmail", mock.Anything, "exists@example.com").Return(true, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, _, err := service.Join(context.Background(), JoinRequest{
		Name:     "Someone",
		Email:    "exists@example.com",
		Password: "Other123!",
	}, "", "")

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_Login_Success(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	existing := &domain.Principal{
		ID:           10,
		Email:        "member@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleMember,
	}

	principals.On("GetByEmail", mock.Anything, "member@example.com").Return(existing, nil)
	jwtSvc.On("GenerateAccessToken", int64(10), "member").Return("login-token", nil, nil)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	result, err := service.Login(context.Background(), LoginRequest{
		Email:    "member@example.com",
		Password: "password123",
	}, "", "")

	require.NoError(t, err)
	assert.Equal(t, "login-token", result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	assert.Empty(t, result.Principal.PasswordHash)
}

func TestService_Login_EnumerationProtection(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	existing := &domain.Principal{ID: 10, Email: "real@example.com", PasswordHash: string(hashed), Role: domain.RoleMember}

	principals.On("GetByEmail", mock.Anything, "unknown@example.com").Return(nil, gorm.ErrRecordNotFound)
	principals.On("GetByEmail", mock.Anything, "real@example.com").Return(existing, nil)
	principals.On("UpdateFields", mock.Anything, int64(10), mock.Anything).Return(nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, errUnknown := service.Login(context.Background(), LoginRequest{Email: "unknown@example.com", Password: "anything"}, "", "")
	_, errWrongPw := service.Login(context.Background(), LoginRequest{Email: "real@example.com", Password: "wrongpassword"}, "", "")

	// Unknown identifier and wrong password must be the exact same error.
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestService_Login_LockoutAfterThreshold(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	existing := &domain.Principal{
		ID:                  10,
		Email:               "member@example.com",
		PasswordHash:        string(hashed),
		Role:                domain.RoleMember,
		FailedLoginAttempts: 4, // one more failure crosses the threshold of 5
	}

	principals.On("GetByEmail", mock.Anything, "member@example.com").Return(existing, nil)
	principals.On("UpdateFields", mock.Anything, int64(10), mock.MatchedBy(func(fields map[string]any) bool {
		_, locked := fields["locked_until"]
		return locked && fields["failed_login_attempts"] == 5
	})).Return(nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, err := service.Login(context.Background(), LoginRequest{Email: "member@example.com", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)
	principals.AssertExpectations(t)
}

func TestService_Login_LockedRejectsCorrectPassword(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	lockedUntil := time.Now().Add(10 * time.Minute)
	existing := &domain.Principal{
		ID:           10,
		Email:        "member@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleMember,
		LockedUntil:  &lockedUntil,
	}

	principals.On("GetByEmail", mock.Anything, "member@example.com").Return(existing, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, err := service.Login(context.Background(), LoginRequest{Email: "member@example.com", Password: "correct-password"}, "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestService_Login_Suspended(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	existing := &domain.Principal{
		ID:        10,
		Email:     "banned@example.com",
		Role:      domain.RoleMember,
		Suspended: true,
	}

	principals.On("GetByEmail", mock.Anything, "banned@example.com").Return(existing, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, err := service.Login(context.Background(), LoginRequest{Email: "banned@example.com", Password: "whatever"}, "", "")
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestService_Refresh_UnknownToken(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	sessions.On("GetByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, err := service.Refresh(context.Background(), "never-issued", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Refresh_ExpiredSession(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	expired := &domain.Session{
		ID:          3,
		PrincipalID: 10,
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	sessions.On("GetByHash", mock.Anything, mock.Anything).Return(expired, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	_, err := service.Refresh(context.Background(), "expired-token", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Logout_UnknownTokenIsNoop(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	sessions.On("GetByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	assert.NoError(t, service.Logout(context.Background(), "already-gone"))
}

func TestService_ChangePassword_WrongCurrent(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("real-password"), bcrypt.DefaultCost)
	principals.On("GetByID", mock.Anything, int64(10)).Return(&domain.Principal{ID: 10, PasswordHash: string(hashed)}, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	err := service.ChangePassword(context.Background(), 10, "guessed-wrong", "NewPass123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_ChangePassword_SamePassword(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRepo)
	verifications := new(mockVerificationRepo)
	jwtSvc := new(mockJWTService)
	m := new(mockMailer)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("real-password"), bcrypt.DefaultCost)
	principals.On("GetByID", mock.Anything, int64(10)).Return(&domain.Principal{ID: 10, PasswordHash: string(hashed)}, nil)

	service := newTestService(principals, sessions, verifications, jwtSvc, m)

	err := service.ChangePassword(context.Background(), 10, "real-password", "real-password")
	assert.ErrorIs(t, err, ErrSamePassword)
}
