package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

type InternalAPIKeyRepository struct {
	db DBTX
}

func NewInternalAPIKeyRepository(db DBTX) *InternalAPIKeyRepository {
	return &InternalAPIKeyRepository{db: db}
}

func (r *InternalAPIKeyRepository) Create(ctx context.Context, key *entity.InternalAPIKey) error {
	query := `
		INSERT INTO internal_api_keys (service_name, key_hash, is_active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		key.ServiceName,
		key.KeyHash,
		key.IsActive,
		key.ExpiresAt,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	key.ID = uint64(id)
	return nil
}

func (r *InternalAPIKeyRepository) FindActiveByHash(ctx context.Context, keyHash string, now time.Time) (*entity.InternalAPIKey, error) {
	query := `
		SELECT id, service_name, key_hash, is_active, expires_at, created_at, updated_at
		FROM internal_api_keys
		WHERE key_hash = ? AND is_active = 1 AND expires_at > ?
		ORDER BY id DESC
		LIMIT 1
	`
	key, err := scanInternalAPIKey(r.db.QueryRowContext(ctx, query, keyHash, now).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (r *InternalAPIKeyRepository) FindActiveByServiceName(ctx context.Context, serviceName string, now time.Time) ([]*entity.InternalAPIKey, error) {
	query := `
		SELECT id, service_name, key_hash, is_active, expires_at, created_at, updated_at
		FROM internal_api_keys
		WHERE service_name = ? AND is_active = 1 AND expires_at > ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, serviceName, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]*entity.InternalAPIKey, 0)
	for rows.Next() {
		key, err := scanInternalAPIKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

func (r *InternalAPIKeyRepository) Deactivate(ctx context.Context, id uint64, now time.Time) error {
	query := `UPDATE internal_api_keys SET is_active = 0, expires_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, now, now, id)
	return err
}

func scanInternalAPIKey(scan rowScanner) (*entity.InternalAPIKey, error) {
	key := &entity.InternalAPIKey{}
	if err := scan(
		&key.ID,
		&key.ServiceName,
		&key.KeyHash,
		&key.IsActive,
		&key.ExpiresAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return key, nil
}
