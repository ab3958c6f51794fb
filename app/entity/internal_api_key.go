package entity

import "time"

// InternalAPIKey authenticates a sibling service calling the internal API.
// Only the sha256 of the raw key is stored.
type InternalAPIKey struct {
	ID          uint64
	ServiceName string
	KeyHash     string
	IsActive    bool
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
