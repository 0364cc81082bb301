package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordStrengthAccepted(t *testing.T) {
	for _, p := range []string{"Sunrise42", "xK9aaaaa", "Долгий1pass"} {
		if err := ValidatePasswordStrength(p); err != nil {
			t.Fatalf("%q rejected: %v", p, err)
		}
	}
}

func TestPasswordStrengthReportsEveryProblem(t *testing.T) {
	err := ValidatePasswordStrength("short")
	var weak *WeakPasswordError
	if !errors.As(err, &weak) {
		t.Fatalf("expected WeakPasswordError, got %v", err)
	}
	// Too short, no uppercase, no digit: all three at once.
	if len(weak.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", weak.Problems)
	}
}

func TestPasswordStrengthRejectsOverlong(t *testing.T) {
	err := ValidatePasswordStrength("Aa1" + strings.Repeat("x", 130))
	var weak *WeakPasswordError
	if !errors.As(err, &weak) || len(weak.Problems) != 1 {
		t.Fatalf("expected a single length problem, got %v", err)
	}
}

func TestPasswordStrengthCountsRunes(t *testing.T) {
	// 8 multibyte runes plus the required classes.
	if err := ValidatePasswordStrength("пароль1Б"); err != nil {
		t.Fatalf("rune-length password rejected: %v", err)
	}
}
