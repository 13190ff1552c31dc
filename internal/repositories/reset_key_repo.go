package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"loginguard/internal/database"
	"loginguard/internal/models"
)

// ResetKeyRepository handles password reset key data access
type ResetKeyRepository struct {
	pool *pgxpool.Pool
}

// NewResetKeyRepository creates a new ResetKeyRepository
func NewResetKeyRepository(db *database.DB) *ResetKeyRepository {
	return &ResetKeyRepository{pool: db.Pool}
}

// scanResetKeyRow handles nullable fields and populates a PasswordResetKey model from a database row
func scanResetKeyRow(row rowScanner) (*models.PasswordResetKey, error) {
	var key models.PasswordResetKey
	var usedAt *time.Time

	err := row.Scan(
		&key.ID, &key.UserID, &key.KeyHash,
		&key.ExpiresAt, &usedAt, &key.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	key.UsedAt = usedAt
	return &key, nil
}

// Create stores a new reset key hash for a user. Any previous keys for the
// user are removed first so only the most recent link works.
func (r *ResetKeyRepository) Create(ctx context.Context, userID, keyHash string, expiresAt time.Time) (*models.PasswordResetKey, error) {
	deleteQuery := `DELETE FROM password_reset_keys WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, deleteQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to clear previous reset keys: %w", err)
	}

	query := `
		INSERT INTO password_reset_keys (user_id, key_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, key_hash, expires_at, used_at, created_at
	`

	key, err := scanResetKeyRow(r.pool.QueryRow(ctx, query, userID, keyHash, expiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create reset key: %w", err)
	}

	return key, nil
}

// GetByKeyHash retrieves a reset key by its hash
func (r *ResetKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*models.PasswordResetKey, error) {
	query := `
		SELECT id, user_id, key_hash, expires_at, used_at, created_at
		FROM password_reset_keys
		WHERE key_hash = $1
	`

	key, err := scanResetKeyRow(r.pool.QueryRow(ctx, query, keyHash))
	if err != nil {
		return nil, err
	}

	return key, nil
}

// MarkUsed marks a reset key as consumed. Returns models.ErrNotFound when the
// key was already used, so concurrent redemptions cannot both succeed.
func (r *ResetKeyRepository) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE password_reset_keys
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark reset key as used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteByUserID deletes all reset keys for a user
func (r *ResetKeyRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM password_reset_keys WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reset keys for user: %w", err)
	}

	return nil
}

// CleanupExpired deletes expired and used reset keys, returning the number removed
func (r *ResetKeyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_reset_keys WHERE expires_at < NOW() OR used_at IS NOT NULL`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired reset keys: %w", err)
	}

	return result.RowsAffected(), nil
}
