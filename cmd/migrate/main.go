package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/fulfillment-router/pkg/config"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|to|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory; empty uses the migrations built into the binary")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	switch opts.cmd {
	case "create":
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateFS(migrate.Source(opts.dir)); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]string{"env": cfg.App.Env},
	})
	if cfg.FeatureFlags.UseSQLite {
		return errors.New("goose migrations target postgres; sqlite databases are built with FULFILLMENT_AUTO_MIGRATE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "cmd", opts.cmd)

	client, err := db.New(ctx, cfg.DB, false, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}
	migrator, err := migrate.NewMigrator(sqlDB, migrate.Source(opts.dir))
	if err != nil {
		return err
	}

	var applied []migrate.Applied
	switch opts.cmd {
	case "up":
		applied, err = migrator.Up(ctx)
	case "down":
		applied, err = migrator.Down(ctx)
	case "to":
		if opts.version == "" {
			return errors.New("-version is required")
		}
		applied, err = migrator.To(ctx, opts.version)
	case "status":
		return printStatus(ctx, migrator)
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
	if err != nil {
		return err
	}

	for _, a := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     a.Version,
			"direction":   a.Direction,
			"duration_ms": a.Duration.Milliseconds(),
		}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "count", len(applied)), "migrate finished")
	return nil
}

func printStatus(ctx context.Context, migrator *migrate.Migrator) error {
	states, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range states {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Printf("%d\t%-28s\t%s\n", s.Version, applied, s.Path)
	}
	return nil
}
