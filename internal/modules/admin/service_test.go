package admin

import (
	"context"
	"testing"

	"authhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockPrincipalRepo struct {
	mock.Mock
}

func (m *mockPrincipalRepo) GetByID(ctx context.Context, id int64) (*domain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *mockPrincipalRepo) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *mockPrincipalRepo) List(ctx context.Context, limit, offset int) ([]domain.Principal, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Principal), args.Get(1).(int64), args.Error(2)
}

type mockSessionRevoker struct {
	mock.Mock
}

func (m *mockSessionRevoker) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func TestService_Suspend_RevokesSessions(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	principals.On("GetByID", mock.Anything, int64(10)).Return(&domain.Principal{ID: 10, Role: domain.RoleMember}, nil)
	principals.On("UpdateFields", mock.Anything, int64(10), mock.MatchedBy(func(fields map[string]any) bool {
		return fields["suspended"] == true && fields["suspended_reason"] == "abuse"
	})).Return(nil)
	sessions.On("RevokeAllForPrincipal", mock.Anything, int64(10)).Return(nil)

	service := NewService(principals, sessions)

	require.NoError(t, service.Suspend(context.Background(), 10, "abuse"))
	sessions.AssertExpectations(t)
	principals.AssertExpectations(t)
}

func TestService_Suspend_NotFound(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	principals.On("GetByID", mock.Anything, int64(999)).Return(nil, gorm.ErrRecordNotFound)

	service := NewService(principals, sessions)

	err := service.Suspend(context.Background(), 999, "abuse")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
	sessions.AssertNotCalled(t, "RevokeAllForPrincipal", mock.Anything, mock.Anything)
}

func TestService_Unsuspend_ClearsFields(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	principals.On("GetByID", mock.Anything, int64(10)).Return(&domain.Principal{ID: 10, Suspended: true}, nil)
	principals.On("UpdateFields", mock.Anything, int64(10), mock.MatchedBy(func(fields map[string]any) bool {
		return fields["suspended"] == false
	})).Return(nil)

	service := NewService(principals, sessions)

	require.NoError(t, service.Unsuspend(context.Background(), 10))
	principals.AssertExpectations(t)
}

func TestService_SetRole_InvalidRole(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	service := NewService(principals, sessions)

	err := service.SetRole(context.Background(), 10, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
	principals.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SetRole_Success(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	principals.On("GetByID", mock.Anything, int64(10)).Return(&domain.Principal{ID: 10, Role: domain.RoleMember}, nil)
	principals.On("UpdateFields", mock.Anything, int64(10), map[string]any{"role": "moderator"}).Return(nil)

	service := NewService(principals, sessions)

	require.NoError(t, service.SetRole(context.Background(), 10, "moderator"))
	principals.AssertExpectations(t)
}

func TestService_ListPrincipals_ClampsPaging(t *testing.T) {
	principals := new(mockPrincipalRepo)
	sessions := new(mockSessionRevoker)

	principals.On("List", mock.Anything, 20, 0).Return([]domain.Principal{
		{ID: 1, PasswordHash: "secret-hash"},
	}, int64(1), nil)

	service := NewService(principals, sessions)

	items, total, err := service.ListPrincipals(context.Background(), -5, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].PasswordHash)
}
