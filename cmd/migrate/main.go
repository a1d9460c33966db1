package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/db"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/migrate"
)

const usage = `usage: migrate [up | down <steps> | version]`

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logg.Error(ctx, "connect db", err)
		os.Exit(1)
	}
	defer pool.Close()

	switch cmd {
	case "up":
		if err := migrate.Apply(ctx, pool); err != nil {
			logg.Error(ctx, "apply migrations", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrations applied")
	case "down":
		steps, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			flag.Usage()
			os.Exit(2)
		}
		if err := migrate.Rollback(ctx, pool, steps); err != nil {
			logg.Error(ctx, "rollback migrations", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "steps", steps), "migrations rolled back")
	case "version":
		version, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logg.Error(ctx, "read schema version", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"version": version, "dirty": dirty}), "schema version")
	default:
		flag.Usage()
		os.Exit(2)
	}
}
