package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Upsert stores the session of token.UserID, replacing any previous one.
func (r *RefreshTokenRepository) Upsert(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, ip_address, user_agent, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			token = VALUES(token),
			ip_address = VALUES(ip_address),
			user_agent = VALUES(user_agent),
			expires_at = VALUES(expires_at),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Token,
		token.IPAddress,
		token.UserAgent,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	return err
}

// FindByUserIDForUpdate must run inside a transaction; the row stays locked
// until commit or rollback.
func (r *RefreshTokenRepository) FindByUserIDForUpdate(ctx context.Context, userID uint64, now time.Time) (*entity.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, ip_address, user_agent, expires_at, created_at, updated_at
		FROM refresh_tokens WHERE user_id = ? AND expires_at > ? FOR UPDATE
	`
	return r.findOne(ctx, query, userID, now)
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, id uint64, token string, expiresAt, updatedAt time.Time) error {
	query := `UPDATE refresh_tokens SET token = ?, expires_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, token, expiresAt, updatedAt, id)
	return err
}

func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id uint64) error {
	query := `DELETE FROM refresh_tokens WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= ?`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.RefreshToken, error) {
	rt := &entity.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.IPAddress,
		&rt.UserAgent,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}
