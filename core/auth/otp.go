package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	otpDigits      = 6
	OTPTTL         = 5 * time.Minute
	MaxOTPAttempts = 3
)

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a zero-padded 6-digit one-time code from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
