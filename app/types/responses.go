package types

import (
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type Avatar struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// UserResponse is the client-facing view of a user. It never carries the
// password hash.
type UserResponse struct {
	ID              uint64    `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsActive        bool      `json:"is_active"`
	Bio             string    `json:"bio"`
	Avatar          *Avatar   `json:"avatar,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	res := &UserResponse{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Role:            user.Role.String(),
		IsEmailVerified: user.IsEmailVerified,
		IsActive:        user.IsActive,
		Bio:             user.Bio.String,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	if user.AvatarURL.Valid {
		res.Avatar = &Avatar{URL: user.AvatarURL.String, PublicID: user.AvatarPublicID.String}
	}
	return res
}

type RegisterResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

type LoginResponse struct {
	Message               string        `json:"message"`
	User                  *UserResponse `json:"user"`
	AccessToken           string        `json:"access_token"`
	RefreshToken          string        `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time     `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time     `json:"refresh_token_expires_at"`
}

func NewLoginResponse(message string, result *dto.AuthResult) *LoginResponse {
	return &LoginResponse{
		Message:               message,
		User:                  NewUserResponse(result.User),
		AccessToken:           result.AccessToken.Value,
		RefreshToken:          result.RefreshToken.Value,
		AccessTokenExpiresAt:  result.AccessToken.ExpiresAt,
		RefreshTokenExpiresAt: result.RefreshToken.ExpiresAt,
	}
}

type RefreshTokenResponse struct {
	Message               string    `json:"message"`
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

func NewRefreshTokenResponse(result *dto.AuthResult) *RefreshTokenResponse {
	return &RefreshTokenResponse{
		Message:               "tokens updated successfully",
		AccessToken:           result.AccessToken.Value,
		RefreshToken:          result.RefreshToken.Value,
		AccessTokenExpiresAt:  result.AccessToken.ExpiresAt,
		RefreshTokenExpiresAt: result.RefreshToken.ExpiresAt,
	}
}

type ProfileResponse struct {
	User *UserResponse `json:"user"`
}

type AvatarResponse struct {
	Message string  `json:"message"`
	Avatar  *Avatar `json:"avatar"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type UserListResponse struct {
	Users      []*UserResponse `json:"users"`
	Pagination Pagination      `json:"pagination"`
}

func NewUserListResponse(page *dto.UserPage) *UserListResponse {
	users := make([]*UserResponse, 0, len(page.Users))
	for _, user := range page.Users {
		users = append(users, NewUserResponse(user))
	}
	return &UserListResponse{
		Users: users,
		Pagination: Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages(),
		},
	}
}

type ValidateTokenResponse struct {
	Valid     bool       `json:"valid"`
	UserID    uint64     `json:"user_id,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
