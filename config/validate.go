package config

import (
	"errors"
	"strings"
)

// Validate rejects configurations that would silently weaken the auth core.
// Dev mode fills in throwaway secrets so a bare checkout still boots.
func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if cfg.IsProduction() {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errors.New("FALCON_JWT_SECRET is required in production")
		}
		if len(cfg.JWTSecret) < 32 {
			return errors.New("FALCON_JWT_SECRET must be at least 32 characters")
		}
		if strings.TrimSpace(cfg.Pepper) == "" {
			return errors.New("FALCON_PEPPER is required in production")
		}
		if strings.TrimSpace(cfg.DBURL) == "" {
			return errors.New("FALCON_DB_URL is required in production")
		}
		return nil
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		cfg.JWTSecret = "falcon-hq-dev-secret-do-not-use-in-prod"
	}
	if strings.TrimSpace(cfg.Pepper) == "" {
		cfg.Pepper = "falcon-hq-dev-pepper"
	}
	return nil
}
