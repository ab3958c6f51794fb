package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

var (
	ErrInvalidInternalAPIKey    = errors.New("invalid or expired internal api key")
	ErrServiceHasActiveAPIKey   = errors.New("service already has an active api key")
	ErrServiceHasNoActiveAPIKey = errors.New("service has no active api key")
	ErrServiceNameRequired      = errors.New("service name is required")
)

const internalKeyPrefix = "olint_"

type InternalAPIKeyRepository interface {
	Create(ctx context.Context, key *entity.InternalAPIKey) error
	FindActiveByHash(ctx context.Context, keyHash string, now time.Time) (*entity.InternalAPIKey, error)
	FindActiveByServiceName(ctx context.Context, serviceName string, now time.Time) ([]*entity.InternalAPIKey, error)
	Deactivate(ctx context.Context, id uint64, now time.Time) error
}

// InternalAuthService manages the keys sibling services (the course service
// for one) present when calling the internal API.
type InternalAuthService interface {
	ValidateInternalAPIKey(ctx context.Context, apiKey string) (*entity.InternalAPIKey, error)
	GenerateInternalAPIKey(ctx context.Context, serviceName string) (string, error)
	DeactivateInternalAPIKeys(ctx context.Context, serviceName string) (int, error)
	RotateInternalAPIKey(ctx context.Context, serviceName string) (string, error)
}

type internalAuthService struct {
	internalAPIKeyRepo InternalAPIKeyRepository
}

func NewInternalAuthService(internalAPIKeyRepo InternalAPIKeyRepository) InternalAuthService {
	return &internalAuthService{internalAPIKeyRepo: internalAPIKeyRepo}
}

func (s *internalAuthService) ValidateInternalAPIKey(ctx context.Context, apiKey string) (*entity.InternalAPIKey, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrInvalidInternalAPIKey
	}

	key, err := s.internalAPIKeyRepo.FindActiveByHash(ctx, hashInternalAPIKey(apiKey), time.Now())
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrInvalidInternalAPIKey
	}
	return key, nil
}

func (s *internalAuthService) GenerateInternalAPIKey(ctx context.Context, serviceName string) (string, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return "", ErrServiceNameRequired
	}

	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, time.Now())
	if err != nil {
		return "", err
	}
	if len(activeKeys) > 0 {
		return "", ErrServiceHasActiveAPIKey
	}

	return s.createKey(ctx, serviceName)
}

func (s *internalAuthService) DeactivateInternalAPIKeys(ctx context.Context, serviceName string) (int, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return 0, ErrServiceNameRequired
	}

	now := time.Now()
	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, now)
	if err != nil {
		return 0, err
	}
	if len(activeKeys) == 0 {
		return 0, ErrServiceHasNoActiveAPIKey
	}

	for _, key := range activeKeys {
		if err = s.internalAPIKeyRepo.Deactivate(ctx, key.ID, now); err != nil {
			return 0, err
		}
	}
	return len(activeKeys), nil
}

// RotateInternalAPIKey replaces every active key of serviceName with a single
// new one. The old keys stop working immediately.
func (s *internalAuthService) RotateInternalAPIKey(ctx context.Context, serviceName string) (string, error) {
	if _, err := s.DeactivateInternalAPIKeys(ctx, serviceName); err != nil {
		return "", err
	}
	return s.createKey(ctx, strings.TrimSpace(serviceName))
}

func (s *internalAuthService) createKey(ctx context.Context, serviceName string) (string, error) {
	rawKey, keyHash, err := generateInternalAPIKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	internalKey := &entity.InternalAPIKey{
		ServiceName: serviceName,
		KeyHash:     keyHash,
		IsActive:    true,
		ExpiresAt:   now.AddDate(100, 0, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.internalAPIKeyRepo.Create(ctx, internalKey); err != nil {
		return "", err
	}
	return rawKey, nil
}

func generateInternalAPIKey() (string, string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	rawKey := internalKeyPrefix + hex.EncodeToString(secret)
	return rawKey, hashInternalAPIKey(rawKey), nil
}

func hashInternalAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
