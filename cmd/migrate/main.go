package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/migrate"
)

var (
	cmd     = flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir     = flag.String("dir", migrate.DefaultDir, "migrations directory")
	name    = flag.String("name", "", "migration name, required for -cmd=create")
	version = flag.String("version", "", "target version (YYYYMMDDHHMMSS), required for -cmd=version")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	// create and validate only touch the filesystem; no config or DB needed.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	ctx := context.Background()
	sqlDB, cleanup := openDatabase(ctx)
	defer cleanup()

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd); err != nil {
			fail("goose %s: %v", *cmd, err)
		}
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			fail("migrate to version %s: %v", *version, err)
		}
	default:
		fail("unknown -cmd value: %s", *cmd)
	}
}

func openDatabase(ctx context.Context) (*sql.DB, func()) {
	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, cfg.Features.UseSQLite, logg)
	if err != nil {
		fail("connect database: %v", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		_ = client.Close()
		fail("extract sql.DB: %v", err)
	}
	return sqlDB, func() { _ = client.Close() }
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
