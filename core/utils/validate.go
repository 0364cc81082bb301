package utils

import (
	"errors"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lowercases and trims an email address. Lookup keys and
// stored values always go through this.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateEmail(s string) error {
	if s == "" {
		return errors.New("email is required")
	}
	if len(s) > 254 || !emailRe.MatchString(s) {
		return errors.New("invalid email")
	}
	return nil
}
