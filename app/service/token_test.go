package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_AccessTokenClaims(t *testing.T) {
	cfg := testConfig()
	fixed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	issuer := service.NewTokenIssuer(cfg.JWT, cfg.Tokens, service.WithClock(func() time.Time { return fixed }))

	user := &entity.User{ID: 42, Role: entity.RoleInstructor}
	token, err := issuer.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !token.ExpiresAt.Equal(fixed.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", token.ExpiresAt)
	}

	claims, err := issuer.ParseAccessToken(token.Value)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != 42 || claims.Role != entity.RoleInstructor {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != service.AudienceAccess {
		t.Fatalf("unexpected audience %v", claims.Audience)
	}
}

func TestTokenIssuer_TokensAreUnique(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)
	user := &entity.User{ID: 1, Role: entity.RoleStudent}

	first, _ := issuer.GenerateRefreshToken(user)
	second, _ := issuer.GenerateRefreshToken(user)
	if first.Value == second.Value {
		t.Fatalf("expected distinct refresh tokens within the same second")
	}
}

func TestTokenIssuer_ClassesAreNotInterchangeable(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)
	user := &entity.User{ID: 1, Role: entity.RoleStudent}

	access, _ := issuer.GenerateAccessToken(user)
	refresh, _ := issuer.GenerateRefreshToken(user)
	reset, _ := issuer.GenerateResetToken(user)

	if _, err := issuer.ParseRefreshToken(access.Value); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("access as refresh: expected ErrInvalidToken, got %v", err)
	}
	if _, err := issuer.ParseAccessToken(refresh.Value); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("refresh as access: expected ErrInvalidToken, got %v", err)
	}
	if _, err := issuer.ParseAccessToken(reset.Value); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("reset as access: expected ErrInvalidToken, got %v", err)
	}
	if _, err := issuer.ParseResetToken(access.Value); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("access as reset: expected ErrInvalidToken, got %v", err)
	}

	claims, err := issuer.ParseResetToken(reset.Value)
	if err != nil || claims.UserID != 1 {
		t.Fatalf("reset token should parse, got %+v (%v)", claims, err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	past := service.NewTokenIssuer(cfg.JWT, cfg.Tokens, service.WithClock(func() time.Time { return now.Add(-time.Hour) }))
	current := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)

	token, _ := past.GenerateAccessToken(&entity.User{ID: 1, Role: entity.RoleStudent})
	if _, err := current.ParseAccessToken(token.Value); !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	reset, _ := past.GenerateResetToken(&entity.User{ID: 1})
	if _, err := current.ParseResetToken(reset.Value); !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected reset token to expire, got %v", err)
	}
}

func TestTokenIssuer_RejectsForeignSignatures(t *testing.T) {
	cfg := testConfig()
	issuer := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)

	other := testConfig()
	other.JWT.AccessSecret = "someone-else"
	forged, _ := service.NewTokenIssuer(other.JWT, other.Tokens).GenerateAccessToken(&entity.User{ID: 1, Role: entity.RoleAdmin})
	if _, err := issuer.ParseAccessToken(forged.Value); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a foreign signature, got %v", err)
	}

	claims := &service.Claims{
		UserID: 1,
		Role:   entity.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "onlearn-auth",
			Audience:  jwt.ClaimStrings{service.AudienceAccess},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	if _, err = issuer.ParseAccessToken(unsigned); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}

	noExp := &service.Claims{
		UserID: 1,
		Role:   entity.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "onlearn-auth",
			Audience: jwt.ClaimStrings{service.AudienceAccess},
		},
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte(cfg.JWT.AccessSecret))
	if _, err = issuer.ParseAccessToken(signed); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}
