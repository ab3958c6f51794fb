package service

import "strings"

// NormalizeEmail is the form emails are stored and looked up in, which makes
// uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
