// Package cli holds the operator commands that run against the database
// directly, without going through the HTTP surface.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"falcon-hq/config"
	"falcon-hq/core/auth"
	"falcon-hq/core/rbac"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

func Run() {
	createUserCmd := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := createUserCmd.String("email", "", "account email")
	name := createUserCmd.String("name", "", "display name")
	password := createUserCmd.String("password", "", "initial password")
	role := createUserCmd.String("role", store.RoleViewer, "ADMIN, SENIOR_AGENT, AGENT or VIEWER")

	banCmd := flag.NewFlagSet("ban", flag.ExitOnError)
	banIP := banCmd.String("ip", "", "address to ban")
	banReason := banCmd.String("reason", "manual", "ban reason")
	banHours := banCmd.Int("hours", 0, "ban duration in hours, 0 for permanent")

	unbanCmd := flag.NewFlagSet("unban", flag.ExitOnError)
	unbanIP := unbanCmd.String("ip", "", "address to unban")

	if len(os.Args) < 2 {
		fmt.Println("commands: create-user, ban, unban")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create-user":
		_ = createUserCmd.Parse(os.Args[2:])
		runCreateUser(*email, *name, *password, *role)
	case "ban":
		_ = banCmd.Parse(os.Args[2:])
		runBan(*banIP, *banReason, *banHours)
	case "unban":
		_ = unbanCmd.Parse(os.Args[2:])
		runUnban(*unbanIP)
	default:
		fmt.Printf("unknown command %q; commands: create-user, ban, unban\n", os.Args[1])
		os.Exit(2)
	}
}

func openStores() (*config.AppConfig, *utils.Logger, store.UsersStore, store.BansStore, func()) {
	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		fatalf("db: %v", err)
	}
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		fatalf("migrations: %v", err)
	}
	return cfg, logger, store.NewUsersStore(db), store.NewBansStore(db), func() { _ = db.Close() }
}

func runCreateUser(email, name, password, role string) {
	if email == "" || password == "" {
		fatalf("create-user requires -email and -password")
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		fatalf("%v", err)
	}
	if !rbac.KnownRole(role) {
		fatalf("unknown role %q", role)
	}
	cfg, _, users, _, done := openStores()
	defer done()

	hash, salt, err := auth.HashPassword(password, cfg.Pepper)
	if err != nil {
		fatalf("hash password: %v", err)
	}
	id, err := users.Create(context.Background(), &store.User{
		Email:        utils.NormalizeEmail(email),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		Salt:         salt,
	})
	if err != nil {
		fatalf("create user: %v", err)
	}
	fmt.Printf("created user %d (%s, %s)\n", id, email, role)
}

func runBan(ip, reason string, hours int) {
	if ip == "" {
		fatalf("ban requires -ip")
	}
	_, _, _, bans, done := openStores()
	defer done()

	ban := &store.BannedIP{IP: ip, Reason: reason, BannedBy: store.SystemActor}
	if hours > 0 {
		expires := time.Now().Add(time.Duration(hours) * time.Hour).UTC()
		ban.ExpiresAt = &expires
	}
	if err := bans.Upsert(context.Background(), ban); err != nil {
		fatalf("ban: %v", err)
	}
	fmt.Printf("banned %s\n", ip)
}

func runUnban(ip string) {
	if ip == "" {
		fatalf("unban requires -ip")
	}
	_, _, _, bans, done := openStores()
	defer done()

	if err := bans.Delete(context.Background(), ip); err != nil {
		fatalf("unban: %v", err)
	}
	fmt.Printf("unbanned %s\n", ip)
}

func fatalf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}
