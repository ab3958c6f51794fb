package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

const selectUser = `
		SELECT id, email, password_hash, first_name, last_name, role, is_email_verified, is_active,
		       bio, avatar_url, avatar_public_id, created_at, updated_at
		FROM users`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_email_verified, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsEmailVerified,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, selectUser+` WHERE email = ?`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = ?`, id)
}

// UpdateProfile writes only the columns a user edits on their own profile,
// so it cannot undo a concurrent password or verification change.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			first_name = ?,
			last_name = ?,
			bio = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.Bio, user.UpdatedAt, user.ID)
	return translateError(err)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, user *entity.User) error {
	query := `UPDATE users SET avatar_url = ?, avatar_public_id = ?, updated_at = ? WHERE id = ?`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, user.AvatarURL, user.AvatarPublicID, user.UpdatedAt, user.ID)
	return translateError(err)
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uint64) error {
	query := `UPDATE users SET is_email_verified = 1, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	return err
}

// ListByRoles returns one page of users holding any of the given roles,
// newest first.
func (r *UserRepository) ListByRoles(ctx context.Context, roles []entity.Role, limit, offset int) ([]*entity.User, error) {
	placeholders, args := roleArgs(roles)
	query := selectUser + ` WHERE role IN (` + placeholders + `) ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) CountByRoles(ctx context.Context, roles []entity.Role) (int, error) {
	placeholders, args := roleArgs(roles)
	query := `SELECT COUNT(*) FROM users WHERE role IN (` + placeholders + `)`

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	err := scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsEmailVerified,
		&user.IsActive,
		&user.Bio,
		&user.AvatarURL,
		&user.AvatarPublicID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func roleArgs(roles []entity.Role) (string, []interface{}) {
	args := make([]interface{}, 0, len(roles))
	for _, role := range roles {
		args = append(args, string(role))
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(roles)), ", "), args
}
