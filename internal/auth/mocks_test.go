package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/estatebid/estatebid-api/internal/user"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	args := m.Called(ctx, params)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	args := m.Called(ctx, token)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return m.Called(ctx, userID, token, expiresAt).Error(0)
}

func (m *mockUserStore) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}

func (m *mockUserStore) ClearResetToken(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) GetByResetTokenHash(ctx context.Context, tokenHash string) (*user.User, error) {
	args := m.Called(ctx, tokenHash)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) ResetPassword(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error {
	return m.Called(ctx, userID, tokenHash, passwordHash).Error(0)
}

type mockEmailService struct {
	mock.Mock
}

func (m *mockEmailService) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	return m.Called(ctx, toEmail, name, token).Error(0)
}

func (m *mockEmailService) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	return m.Called(ctx, toEmail, name, token).Error(0)
}

type mockCooldown struct {
	mock.Mock
}

func (m *mockCooldown) CheckEmailCooldown(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *mockCooldown) SetEmailCooldown(ctx context.Context, address string) error {
	return m.Called(ctx, address).Error(0)
}
