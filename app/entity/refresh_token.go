package entity

import "time"

// RefreshToken is the single persisted session of a user.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchesClient reports whether the request fingerprint equals the one
// captured when the session was issued.
func (t *RefreshToken) MatchesClient(ipAddress, userAgent string) bool {
	return t.IPAddress == ipAddress && t.UserAgent == userAgent
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
