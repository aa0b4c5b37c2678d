package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VerifyRepository interface {
	CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// ConsumeEmailVerification marks the token used and returns the
	// owning user ID, or 0 when the token is unknown, used or expired.
	ConsumeEmailVerification(ctx context.Context, token string) (userID int64, err error)
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

type verifyRepository struct {
	pool *pgxpool.Pool
}

func NewVerifyRepository(pool *pgxpool.Pool) VerifyRepository {
	return &verifyRepository{pool: pool}
}

func (r *verifyRepository) CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const q = `
		INSERT INTO email_verification_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	return err
}

func (r *verifyRepository) ConsumeEmailVerification(ctx context.Context, token string) (int64, error) {
	const q = `
		UPDATE email_verification_tokens
		SET used_at = now()
		WHERE token = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var userID int64
	err := r.pool.QueryRow(ctx, q, token).Scan(&userID)
	if err == pgx.ErrNoRows {
		return 0, nil // Invalid, used, or expired
	}
	return userID, err
}

func (r *verifyRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM email_verification_tokens
		WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
		   OR (used_at IS NULL AND expires_at < now() - interval '7 days')`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
