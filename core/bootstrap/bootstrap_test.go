package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"falcon-hq/config"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

func testSetup(t *testing.T) (store.UsersStore, *config.AppConfig) {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "test.db"), Pepper: "p"}
	cfg.Security.DefaultAdminEmail = "overwatch@falcon.hq"
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.NewUsersStore(db), cfg
}

func TestEnsureDefaultAdminCreates(t *testing.T) {
	us, cfg := testSetup(t)
	ctx := context.Background()

	if err := EnsureDefaultAdminWithStore(ctx, us, cfg, nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	u, err := us.FindByEmail(ctx, "overwatch@falcon.hq")
	if err != nil || u == nil {
		t.Fatalf("admin missing: %v %v", u, err)
	}
	if u.Role != store.RoleAdmin || u.PasswordHash == "" {
		t.Fatalf("bad admin record: %+v", u)
	}
}

func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	us, cfg := testSetup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := EnsureDefaultAdminWithStore(ctx, us, cfg, nil); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	all, err := us.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single admin, got %d users", len(all))
	}
}

func TestEnsureDefaultAdminRestoresRole(t *testing.T) {
	us, cfg := testSetup(t)
	ctx := context.Background()

	if err := EnsureDefaultAdminWithStore(ctx, us, cfg, nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	u, _ := us.FindByEmail(ctx, "overwatch@falcon.hq")
	if err := us.SetRole(ctx, u.ID, store.RoleViewer); err != nil {
		t.Fatalf("demote: %v", err)
	}
	if err := EnsureDefaultAdminWithStore(ctx, us, cfg, nil); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	u, _ = us.FindByEmail(ctx, "overwatch@falcon.hq")
	if u.Role != store.RoleAdmin {
		t.Fatalf("role not restored: %s", u.Role)
	}
}
