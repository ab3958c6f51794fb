package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"

	"github.com/redis/go-redis/v9"
)

// OTPRepository keeps at most one live OTP per user in Redis. Expiry is
// left to the key TTL.
type OTPRepository struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewOTPRepository(client redis.Cmdable, ttl time.Duration) *OTPRepository {
	return &OTPRepository{redis: client, ttl: ttl}
}

func (r *OTPRepository) key(userID uint64) string {
	return "otp:" + strconv.FormatUint(userID, 10)
}

// CreateIfAbsent stores otp only when the user has no live OTP. It reports
// false, leaving the existing entry untouched, otherwise.
func (r *OTPRepository) CreateIfAbsent(ctx context.Context, otp *entity.OTP) (bool, error) {
	value := otp.Code + ":" + strconv.FormatInt(otp.CreatedAt.Unix(), 10)
	return r.redis.SetNX(ctx, r.key(otp.UserID), value, r.ttl).Result()
}

func (r *OTPRepository) Find(ctx context.Context, userID uint64) (*entity.OTP, error) {
	value, err := r.redis.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	otp := &entity.OTP{UserID: userID, Code: value}
	if code, created, ok := strings.Cut(value, ":"); ok {
		otp.Code = code
		if unix, err := strconv.ParseInt(created, 10, 64); err == nil {
			otp.CreatedAt = time.Unix(unix, 0)
		}
	}
	return otp, nil
}

func (r *OTPRepository) Delete(ctx context.Context, userID uint64) error {
	return r.redis.Del(ctx, r.key(userID)).Err()
}
