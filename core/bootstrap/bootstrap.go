// Package bootstrap seeds the records a fresh deployment needs.
package bootstrap

import (
	"context"
	"database/sql"

	"falcon-hq/config"
	"falcon-hq/core/auth"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

// EnsureDefaultAdmin creates the initial administrator account when no user
// holds that email yet. An existing account is promoted back to ADMIN if it
// was demoted, so the deployment always has a way in.
func EnsureDefaultAdmin(ctx context.Context, db *sql.DB, cfg *config.AppConfig, logger *utils.Logger) error {
	return EnsureDefaultAdminWithStore(ctx, store.NewUsersStore(db), cfg, logger)
}

func EnsureDefaultAdminWithStore(ctx context.Context, us store.UsersStore, cfg *config.AppConfig, logger *utils.Logger) error {
	email := utils.NormalizeEmail(cfg.Security.DefaultAdminEmail)
	existing, err := us.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != store.RoleAdmin {
			if err := us.SetRole(ctx, existing.ID, store.RoleAdmin); err != nil {
				return err
			}
			if logger != nil {
				logger.Printf("default admin %s restored to ADMIN", email)
			}
		}
		return nil
	}

	password := cfg.Security.DefaultAdminPassword
	if password == "" {
		// Random throwaway: the operator resets it out of band. Never
		// ship a fixed default credential.
		password, err = utils.RandString(18)
		if err != nil {
			return err
		}
	}
	hash, salt, err := auth.HashPassword(password, cfg.Pepper)
	if err != nil {
		return err
	}
	_, err = us.Create(ctx, &store.User{
		Email:        email,
		Name:         "Overwatch",
		Role:         store.RoleAdmin,
		PasswordHash: hash,
		Salt:         salt,
	})
	if err != nil {
		return err
	}
	if logger != nil {
		if cfg.Security.DefaultAdminPassword == "" {
			logger.Printf("default admin %s created with a random password; reset it via FALCON_DEFAULT_ADMIN_PASSWORD", email)
		} else {
			logger.Printf("default admin %s created", email)
		}
	}
	return nil
}
