package ratelimit

import "time"

// Config describes one traffic class. Progressive classes escalate repeat
// offenders through the PenaltyTracker; hard classes just deny until the
// window resets.
type Config struct {
	Name          string
	MaxRequests   int
	Window        time.Duration
	Progressive   bool
	PenaltyBase   time.Duration
	PenaltyFactor float64
}

var (
	Login = Config{
		Name:          "login",
		MaxRequests:   5,
		Window:        15 * time.Minute,
		Progressive:   true,
		PenaltyBase:   30 * time.Minute,
		PenaltyFactor: 2,
	}
	OTP = Config{
		Name:          "otp",
		MaxRequests:   3,
		Window:        5 * time.Minute,
		Progressive:   true,
		PenaltyBase:   time.Hour,
		PenaltyFactor: 3,
	}
	Upload = Config{
		Name:        "upload",
		MaxRequests: 20,
		Window:      time.Hour,
	}
	APIRead = Config{
		Name:        "api_read",
		MaxRequests: 300,
		Window:      time.Minute,
	}
	APIWrite = Config{
		Name:        "api_write",
		MaxRequests: 60,
		Window:      time.Minute,
	}
	Beacon = Config{
		Name:        "beacon",
		MaxRequests: 600,
		Window:      time.Minute,
	}
	Default = Config{
		Name:        "default",
		MaxRequests: 120,
		Window:      time.Minute,
	}
)
