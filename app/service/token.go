package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "onlearn-auth"

	AudienceAccess  = "onlearn:access"
	AudienceRefresh = "onlearn:refresh"
	AudienceReset   = "onlearn:password-reset"
)

type Claims struct {
	UserID uint64      `json:"id"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	UserID uint64 `json:"userId"`
	jwt.RegisteredClaims
}

type TokenIssuerOption func(*TokenIssuer)

// WithClock replaces time.Now for both signing and verification.
func WithClock(now func() time.Time) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// TokenIssuer signs and verifies the three token classes. Access and reset
// tokens share a secret but never an audience.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
	now           func() time.Time
}

func NewTokenIssuer(jwtCfg config.JWTConfig, tokens config.TokenConfig, opts ...TokenIssuerOption) *TokenIssuer {
	issuer := &TokenIssuer{
		accessSecret:  []byte(jwtCfg.AccessSecret),
		refreshSecret: []byte(jwtCfg.RefreshSecret),
		accessTTL:     jwtCfg.AccessTokenTTL,
		refreshTTL:    jwtCfg.RefreshTokenTTL,
		resetTTL:      tokens.ResetTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

func (i *TokenIssuer) GenerateAccessToken(user *entity.User) (dto.SignedToken, error) {
	return i.sign(i.userClaims(user, AudienceAccess, i.accessTTL), i.accessSecret)
}

func (i *TokenIssuer) GenerateRefreshToken(user *entity.User) (dto.SignedToken, error) {
	return i.sign(i.userClaims(user, AudienceRefresh, i.refreshTTL), i.refreshSecret)
}

func (i *TokenIssuer) GenerateResetToken(user *entity.User) (dto.SignedToken, error) {
	now := i.now()
	claims := &ResetClaims{
		UserID:           user.ID,
		RegisteredClaims: i.registered(now, AudienceReset, i.resetTTL),
	}
	return i.sign(claims, i.accessSecret)
}

func (i *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := i.parse(tokenString, claims, i.accessSecret, AudienceAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := i.parse(tokenString, claims, i.refreshSecret, AudienceRefresh); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) ParseResetToken(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret, AudienceReset); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) userClaims(user *entity.User, audience string, ttl time.Duration) *Claims {
	return &Claims{
		UserID:           user.ID,
		Role:             user.Role,
		RegisteredClaims: i.registered(i.now(), audience, ttl),
	}
}

func (i *TokenIssuer) registered(now time.Time, audience string, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *TokenIssuer) sign(claims jwt.Claims, secret []byte) (dto.SignedToken, error) {
	expiresAt, err := claims.GetExpirationTime()
	if err != nil {
		return dto.SignedToken{}, err
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return dto.SignedToken{}, err
	}
	return dto.SignedToken{Value: signed, ExpiresAt: expiresAt.Time}, nil
}

func (i *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret []byte, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
