package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

type SignedToken struct {
	Value     string
	ExpiresAt time.Time
}

// AuthResult is what a successful login or refresh hands to the transport
// layer: the user plus the freshly minted token pair.
type AuthResult struct {
	User         *entity.User
	AccessToken  SignedToken
	RefreshToken SignedToken
}

type UserPage struct {
	Users []*entity.User
	Page  int
	Limit int
	Total int
}

func (p *UserPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
