package entity

import "time"

type OTP struct {
	UserID    uint64
	Code      string
	CreatedAt time.Time
}
