package service

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAlreadyVerified      = errors.New("user is already verified")
	ErrWeakPassword         = errors.New("password does not meet policy requirements")
	ErrPasswordConfirmation = errors.New("password and password_confirmation do not match")

	ErrOTPAlreadySent = errors.New("otp already sent")
	ErrOTPNotFound    = errors.New("otp has expired or not found")
	ErrOTPIncorrect   = errors.New("otp provided is incorrect")
	ErrOTPDelivery    = errors.New("failed to send otp")

	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionMismatch = errors.New("refresh token ip/user-agent mismatch")

	ErrResetDelivery = errors.New("failed to send password reset email")
	ErrNoUsersFound  = errors.New("no users found")
)
