package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/mail"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/metrics"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/repository"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/sirupsen/logrus"
)

const resetPasswordPath = "/account/reset-password-confirm"

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	MarkEmailVerified(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

type refreshTokenRepository interface {
	Upsert(ctx context.Context, token *entity.RefreshToken) error
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error)
	VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) error
	ResendOTP(ctx context.Context, req *types.ResendOTPRequest) error
	Login(ctx context.Context, req *types.LoginRequest) (*dto.AuthResult, error)
	RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*dto.AuthResult, error)
	Logout(ctx context.Context, userID uint64) error
	ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req *types.RequestPasswordResetRequest) error
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type UserAuthServiceOption func(*userAuthService)

// WithServiceClock replaces time.Now for session bookkeeping.
func WithServiceClock(now func() time.Time) UserAuthServiceOption {
	return func(s *userAuthService) {
		if now != nil {
			s.now = now
		}
	}
}

type userAuthService struct {
	db               *sql.DB
	userRepo         userRepository
	refreshTokenRepo refreshTokenRepository
	otp              *OTPIssuer
	tokens           *TokenIssuer
	mailer           mail.Mailer
	cfg              *config.Config
	now              func() time.Time
}

func NewUserAuthService(
	db *sql.DB,
	userRepo userRepository,
	refreshTokenRepo refreshTokenRepository,
	otp *OTPIssuer,
	tokens *TokenIssuer,
	mailer mail.Mailer,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		db:               db,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		otp:              otp,
		tokens:           tokens,
		mailer:           mailer,
		cfg:              cfg,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates an unverified student and mails the first OTP. When the
// mail cannot be sent the user is still returned alongside ErrOTPDelivery;
// a resend recovers from that.
func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         entity.RoleStudent,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	logrus.WithField("user_id", user.ID).Info("user registered")

	if err = s.otp.Send(ctx, user); err != nil {
		return user, err
	}
	return user, nil
}

func (s *userAuthService) VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	if err = s.otp.Verify(ctx, user.ID, req.OTP.String()); err != nil {
		return err
	}

	if err = s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	if err = s.otp.Consume(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to delete consumed otp")
	}

	logrus.WithField("user_id", user.ID).Info("email verified")
	return nil
}

func (s *userAuthService) ResendOTP(ctx context.Context, req *types.ResendOTPRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}
	return s.otp.Send(ctx, user)
}

// Login issues a token pair for any user whose password matches. Email
// verification is not a precondition.
func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (*dto.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil || !VerifyPassword(req.Password, user.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	result, err := s.mintPair(user)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.now()
	err = s.refreshTokenRepo.Upsert(ctx, &entity.RefreshToken{
		UserID:    user.ID,
		Token:     result.RefreshToken.Value,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		ExpiresAt: result.RefreshToken.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return result, nil
}

// RefreshToken rotates the caller's session. The session row stays locked
// for the whole exchange so two concurrent refreshes cannot both succeed.
func (s *userAuthService) RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*dto.AuthResult, error) {
	claims, err := s.tokens.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRefreshRepo := repository.NewRefreshTokenRepository(tx)

	now := s.now()
	record, err := txRefreshRepo.FindByUserIDForUpdate(ctx, claims.UserID, now)
	if err != nil {
		return nil, err
	}
	if record == nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, ErrSessionNotFound
	}

	if !record.MatchesClient(req.IPAddress, req.UserAgent) {
		if err = txRefreshRepo.DeleteByID(ctx, record.ID); err != nil {
			return nil, err
		}
		if err = tx.Commit(); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    record.UserID,
			"ip_address": req.IPAddress,
		}).Warn("refresh token presented from a different client, session revoked")
		metrics.TokenRefreshes.WithLabelValues("fingerprint_mismatch").Inc()
		return nil, ErrSessionMismatch
	}

	if record.Token != req.RefreshToken {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidToken
	}

	user, err := repository.NewUserRepository(tx).FindByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, ErrSessionNotFound
	}

	result, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err = txRefreshRepo.Rotate(ctx, record.ID, result.RefreshToken.Value, result.RefreshToken.ExpiresAt, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return result, nil
}

func (s *userAuthService) Logout(ctx context.Context, userID uint64) error {
	return s.refreshTokenRepo.DeleteByUserID(ctx, userID)
}

func (s *userAuthService) ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := newPasswordHash(s.cfg.Password.Policy, req.Password, req.PasswordConfirmation)
	if err != nil {
		return err
	}

	if err = s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	logrus.WithField("user_id", user.ID).Info("password changed")
	return nil
}

func (s *userAuthService) RequestPasswordReset(ctx context.Context, req *types.RequestPasswordResetRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.tokens.GenerateResetToken(user)
	if err != nil {
		return err
	}

	link := s.cfg.App.FrontendHost + resetPasswordPath + "?token=" + url.QueryEscape(token.Value)
	msg, err := mail.PasswordResetMessage(user.Email, user.FirstName, user.FullName(), link, s.cfg.Tokens.ResetTTL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to deliver password reset email")
		return ErrResetDelivery
	}

	logrus.WithField("user_id", user.ID).Info("password reset link sent")
	return nil
}

// ResetPassword sets a new password from a reset link and revokes the
// user's session.
func (s *userAuthService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error {
	if req.Password != req.PasswordConfirmation {
		return ErrPasswordConfirmation
	}

	claims, err := s.tokens.ParseResetToken(req.Token)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := newPasswordHash(s.cfg.Password.Policy, req.Password, req.PasswordConfirmation)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	if err = repository.NewRefreshTokenRepository(tx).DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	logrus.WithField("user_id", user.ID).Info("password reset")
	return nil
}

func (s *userAuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ParseAccessToken(tokenString)
}

func (s *userAuthService) mintPair(user *entity.User) (*dto.AuthResult, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
