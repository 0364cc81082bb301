// Package mail delivers one-time login codes over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"falcon-hq/config"
	"falcon-hq/core/utils"
)

// Sender sends login codes through the configured SMTP relay. Without SMTP
// configuration (local development, the test runtime) it degrades to
// logging the code instead of sending anything.
type Sender struct {
	cfg    config.SMTPConfig
	logger *utils.Logger
	dial   func(m ...*gomail.Message) error
}

func NewSender(cfg config.SMTPConfig, logger *utils.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	if cfg.Host != "" {
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		s.dial = dialer.DialAndSend
	}
	return s
}

func (s *Sender) SendOTP(ctx context.Context, email, code string) error {
	if s.dial == nil {
		if s.logger != nil {
			s.logger.Printf("smtp disabled, otp for %s: %s", email, code)
		}
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your Falcon HQ verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires in 5 minutes. If you did not try to sign in, change your password.\n", code))

	// gomail has no context support; run the send in a goroutine so a
	// stuck relay cannot outlive the request deadline.
	done := make(chan error, 1)
	go func() { done <- s.dial(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send otp mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
