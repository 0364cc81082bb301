package auth

import (
	"strings"
	"unicode"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// WeakPasswordError carries every rule the candidate password broke, so a
// user fixes the password in one round trip instead of several.
type WeakPasswordError struct {
	Problems []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Problems, "; ")
}

// ValidatePasswordStrength checks length and character-class rules. Length
// is counted in runes so multibyte passwords are not penalized.
func ValidatePasswordStrength(password string) error {
	var problems []string
	runes := []rune(password)
	if len(runes) < minPasswordLen {
		problems = append(problems, "must be at least 8 characters")
	}
	if len(runes) > maxPasswordLen {
		problems = append(problems, "must be at most 128 characters")
	}
	var lower, upper, digit bool
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if !upper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if !digit {
		problems = append(problems, "must contain a digit")
	}
	if len(problems) > 0 {
		return &WeakPasswordError{Problems: problems}
	}
	return nil
}
