package service

import (
	"fmt"

	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newPasswordHash checks the confirmation and the policy before hashing.
func newPasswordHash(policy config.PasswordPolicy, password, confirmation string) (string, error) {
	if password != confirmation {
		return "", ErrPasswordConfirmation
	}
	if err := policy.Validate(password); err != nil {
		return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}
	return HashPassword(password)
}
