package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/mail"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/metrics"

	"github.com/sirupsen/logrus"
)

const (
	otpMin = 100000
	otpMax = 999999
)

type otpStore interface {
	CreateIfAbsent(ctx context.Context, otp *entity.OTP) (bool, error)
	Find(ctx context.Context, userID uint64) (*entity.OTP, error)
	Delete(ctx context.Context, userID uint64) error
}

// OTPIssuer owns the email-verification codes: at most one live code per
// user, delivered by mail.
type OTPIssuer struct {
	store  otpStore
	mailer mail.Mailer
	ttl    time.Duration
	now    func() time.Time
}

func NewOTPIssuer(store otpStore, mailer mail.Mailer, ttl time.Duration) *OTPIssuer {
	return &OTPIssuer{
		store:  store,
		mailer: mailer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Send stores a fresh code for user and mails it. A user that still has a
// live code gets ErrOTPAlreadySent and the existing code stays valid.
func (i *OTPIssuer) Send(ctx context.Context, user *entity.User) error {
	code, err := GenerateOTPCode()
	if err != nil {
		return err
	}

	created, err := i.store.CreateIfAbsent(ctx, &entity.OTP{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: i.now(),
	})
	if err != nil {
		return err
	}
	if !created {
		metrics.OTPRequests.WithLabelValues("throttled").Inc()
		return ErrOTPAlreadySent
	}

	msg, err := mail.OTPMessage(user.Email, user.FirstName, code, i.ttl)
	if err == nil {
		err = i.mailer.Send(ctx, msg)
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to deliver otp")
		if delErr := i.store.Delete(ctx, user.ID); delErr != nil {
			logrus.WithError(delErr).WithField("user_id", user.ID).Error("failed to discard undelivered otp")
		}
		metrics.OTPRequests.WithLabelValues("delivery_failed").Inc()
		return ErrOTPDelivery
	}

	metrics.OTPRequests.WithLabelValues("sent").Inc()
	return nil
}

// Verify checks code against the user's live OTP without consuming it.
func (i *OTPIssuer) Verify(ctx context.Context, userID uint64, code string) error {
	otp, err := i.store.Find(ctx, userID)
	if err != nil {
		return err
	}
	if otp == nil {
		return ErrOTPNotFound
	}
	if !OTPCodesMatch(code, otp.Code) {
		return ErrOTPIncorrect
	}
	return nil
}

func (i *OTPIssuer) Consume(ctx context.Context, userID uint64) error {
	return i.store.Delete(ctx, userID)
}

// GenerateOTPCode returns a uniformly distributed six digit code.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// OTPCodesMatch compares codes by integer value, so "012345" and "12345"
// are equal. Anything that is not an integer never matches.
func OTPCodesMatch(submitted, stored string) bool {
	a, err := strconv.Atoi(strings.TrimSpace(submitted))
	if err != nil {
		return false
	}
	b, err := strconv.Atoi(strings.TrimSpace(stored))
	if err != nil {
		return false
	}
	return a == b
}
