package services

import (
	"context"
	"time"

	"loginguard/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	EmailExistsFunc    func(ctx context.Context, email string) (bool, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id string, passwordHash string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// MockResetKeyRepository implements ResetKeyRepository for testing
type MockResetKeyRepository struct {
	CreateFunc         func(ctx context.Context, userID, keyHash string, expiresAt time.Time) (*models.PasswordResetKey, error)
	GetByKeyHashFunc   func(ctx context.Context, keyHash string) (*models.PasswordResetKey, error)
	MarkUsedFunc       func(ctx context.Context, id string) error
	DeleteByUserIDFunc func(ctx context.Context, userID string) error
	CleanupExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *MockResetKeyRepository) Create(ctx context.Context, userID, keyHash string, expiresAt time.Time) (*models.PasswordResetKey, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, keyHash, expiresAt)
	}
	return &models.PasswordResetKey{
		ID:        "key123",
		UserID:    userID,
		KeyHash:   keyHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockResetKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*models.PasswordResetKey, error) {
	if m.GetByKeyHashFunc != nil {
		return m.GetByKeyHashFunc(ctx, keyHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockResetKeyRepository) MarkUsed(ctx context.Context, id string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, id)
	}
	return nil
}

func (m *MockResetKeyRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	return nil
}

func (m *MockResetKeyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	if m.CleanupExpiredFunc != nil {
		return m.CleanupExpiredFunc(ctx)
	}
	return 0, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendConfirmationEmailFunc  func(ctx context.Context, email, token string) error
	SendPasswordResetEmailFunc func(ctx context.Context, email, key string) error

	ConfirmationsSent []string // tokens, in order
	ResetKeysSent     []string // keys, in order
}

func (m *MockEmailService) SendConfirmationEmail(ctx context.Context, email, token string) error {
	if m.SendConfirmationEmailFunc != nil {
		return m.SendConfirmationEmailFunc(ctx, email, token)
	}
	m.ConfirmationsSent = append(m.ConfirmationsSent, token)
	return nil
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, key string) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, key)
	}
	m.ResetKeysSent = append(m.ResetKeysSent, key)
	return nil
}

// MockEmailVerifier implements EmailVerifier for testing
type MockEmailVerifier struct {
	VerifyEmailFunc func(ctx context.Context, email string) (Verdict, error)
}

func (m *MockEmailVerifier) VerifyEmail(ctx context.Context, email string) (Verdict, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, email)
	}
	return Verdict{Valid: true}, nil
}
