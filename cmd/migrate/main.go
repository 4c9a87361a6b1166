package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/migrate"
)

const usage = "up|down|status|version|create|validate|seed-roles"

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+usage)
	dir := flag.String("dir", "", "migrations directory; empty applies the embedded set ("+migrate.DefaultDir+" for create/validate)")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	exitOn(context.Background(), logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"dir":    *dir,
		"driver": cfg.DB.Driver,
	})

	sourceDir := *dir
	if sourceDir == "" && (*cmd == "create" || *cmd == "validate") {
		sourceDir = migrate.DefaultDir
	}

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(sourceDir, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(ctx, logg, "validate migrations", migrate.ValidateDir(sourceDir))
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()

	// SQLite has no goose migrations; its schema comes from the models.
	if cfg.DB.Driver == db.DriverSQLite {
		if *cmd != "up" && *cmd != "seed-roles" {
			fail("only up and seed-roles are supported for sqlite")
		}
		exitOn(ctx, logg, "auto migrate", db.AutoMigrate(ctx, dbClient.DB()))
		logg.Info(ctx, "migrate.done")
		return
	}

	if *cmd == "seed-roles" {
		exitOn(ctx, logg, "seed roles", db.SeedRoles(ctx, dbClient.DB()))
		logg.Info(ctx, "migrate.done")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "extract sql.DB", err)
	migrator, err := migrate.New(sqlDB, migrate.Source(*dir), logg)
	exitOn(ctx, logg, "load migrations", err)

	switch *cmd {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = printStatus(ctx, migrator)
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		err = migrator.To(ctx, *version)
	default:
		fail(fmt.Sprintf("unknown -cmd %q, expected %s", *cmd, usage))
	}
	exitOn(ctx, logg, *cmd, err)
	logg.Info(ctx, "migrate.done")
}

func printStatus(ctx context.Context, migrator *migrate.Migrator) error {
	statuses, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-8s %-20s %s\n", st.State, applied, filepath.Base(st.Source.Path))
	}
	return nil
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate."+step+" failed", err)
	os.Exit(1)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
