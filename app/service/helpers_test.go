package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/mail"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/repository"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	findUserByEmailQuery      = `(?s)SELECT id, email, .+ FROM users WHERE email = \?`
	findUserByIDQuery         = `(?s)SELECT id, email, .+ FROM users WHERE id = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(email, password_hash, first_name, last_name, role, is_email_verified, is_active, created_at, updated_at\)`
	updateProfileQuery        = `(?s)UPDATE users SET\s+first_name = \?,\s+last_name = \?,\s+bio = \?,\s+updated_at = \?\s+WHERE id = \?`
	updateAvatarQuery         = `(?s)UPDATE users SET avatar_url = \?, avatar_public_id = \?, updated_at = \? WHERE id = \?`
	markVerifiedQuery         = `(?s)UPDATE users SET is_email_verified = 1, updated_at = \? WHERE id = \?`
	updatePasswordQuery       = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	listUsersByRolesQuery     = `(?s)SELECT id, email, .+ FROM users WHERE role IN \(.+\) ORDER BY id DESC LIMIT \? OFFSET \?`
	countUsersByRolesQuery    = `(?s)SELECT COUNT\(\*\) FROM users WHERE role IN \(.+\)`
	upsertRefreshTokenQuery   = `(?s)INSERT INTO refresh_tokens \(user_id, token, ip_address, user_agent, expires_at, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`
	findRefreshForUpdateQuery = `(?s)SELECT id, user_id, token, ip_address, user_agent, expires_at, created_at, updated_at\s+FROM refresh_tokens WHERE user_id = \? AND expires_at > \? FOR UPDATE`
	rotateRefreshTokenQuery   = `(?s)UPDATE refresh_tokens SET token = \?, expires_at = \?, updated_at = \? WHERE id = \?`
	deleteRefreshByIDQuery    = `(?s)DELETE FROM refresh_tokens WHERE id = \?`
	deleteRefreshByUserQuery  = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?`
	insertInternalAPIKeyQuery = `(?s)INSERT INTO internal_api_keys \(service_name, key_hash, is_active, expires_at, created_at, updated_at\)`
	findInternalByHashQuery   = `(?s)SELECT id, service_name, key_hash, is_active, expires_at, created_at, updated_at\s+FROM internal_api_keys\s+WHERE key_hash = \?`
	findInternalByServiceName = `(?s)SELECT id, service_name, key_hash, is_active, expires_at, created_at, updated_at\s+FROM internal_api_keys\s+WHERE service_name = \?`
	deactivateInternalKey     = `(?s)UPDATE internal_api_keys SET is_active = 0, expires_at = \?, updated_at = \? WHERE id = \?`
)

var (
	userColumns = []string{
		"id",
		"email",
		"password_hash",
		"first_name",
		"last_name",
		"role",
		"is_email_verified",
		"is_active",
		"bio",
		"avatar_url",
		"avatar_public_id",
		"created_at",
		"updated_at",
	}
	refreshTokenColumns = []string{
		"id",
		"user_id",
		"token",
		"ip_address",
		"user_agent",
		"expires_at",
		"created_at",
		"updated_at",
	}
	internalAPIKeyColumns = []string{
		"id",
		"service_name",
		"key_hash",
		"is_active",
		"expires_at",
		"created_at",
		"updated_at",
	}
)

const (
	testPassword = "Sup3r$ecret"
	testIP       = "10.0.0.1"
	testAgent    = "Mozilla/5.0"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:          "test",
			FrontendHost: "http://localhost:5173",
		},
		JWT: config.JWTConfig{
			AccessSecret:    "access-secret",
			RefreshSecret:   "refresh-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			OTPTTL:   120 * time.Second,
			ResetTTL: 15 * time.Minute,
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{
				MinLength:        8,
				RequireUppercase: true,
				RequireLowercase: true,
				RequireNumber:    true,
				RequireSpecial:   true,
			},
		},
	}
}

type authFixture struct {
	svc     service.UserAuthService
	db      *sql.DB
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
	otpRepo *repository.OTPRepository
	mailer  *fakeMailer
	tokens  *service.TokenIssuer
	cfg     *config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	otpRepo := repository.NewOTPRepository(client, cfg.Tokens.OTPTTL)
	mailer := &fakeMailer{}
	tokens := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)
	otp := service.NewOTPIssuer(otpRepo, mailer, cfg.Tokens.OTPTTL)

	svc := service.NewUserAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		otp,
		tokens,
		mailer,
		cfg,
	)

	return &authFixture{
		svc:     svc,
		db:      db,
		mock:    mock,
		redis:   mr,
		otpRepo: otpRepo,
		mailer:  mailer,
		tokens:  tokens,
		cfg:     cfg,
	}
}

func (f *authFixture) expectationsMet(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(hash)
}

func newTestUser(t *testing.T, id uint64) *entity.User {
	t.Helper()
	now := time.Now()
	return &entity.User{
		ID:              id,
		Email:           "ada@example.com",
		PasswordHash:    hashPassword(t, testPassword),
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Role:            entity.RoleStudent,
		IsEmailVerified: true,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func userRows(users ...*entity.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, user := range users {
		var avatarURL, avatarID interface{}
		if user.AvatarURL.Valid {
			avatarURL = user.AvatarURL.String
			avatarID = user.AvatarPublicID.String
		}
		rows.AddRow(
			user.ID,
			user.Email,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			string(user.Role),
			user.IsEmailVerified,
			user.IsActive,
			nil,
			avatarURL,
			avatarID,
			user.CreatedAt,
			user.UpdatedAt,
		)
	}
	return rows
}
