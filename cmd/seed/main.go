// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/seed"
	"github.com/carterperez-dev/thesis-archive/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	email := flag.String("admin-email", "admin@thesis-archive.local", "superadmin email")
	password := flag.String("admin-password", "", "superadmin password (or SEED_ADMIN_PASSWORD)")
	students := flag.Int("students", 0, "demo students to create")
	theses := flag.Int("theses", 0, "demo theses to upload")
	fakerSeed := flag.Int64("faker-seed", 0, "deterministic faker seed, 0 for random")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *password == "" {
		*password = os.Getenv("SEED_ADMIN_PASSWORD")
	}
	if len(*password) < 8 {
		logger.Error("superadmin password must be at least 8 characters")
		os.Exit(1)
	}

	if err := run(*configPath, logger, *fakerSeed, seed.Options{
		AdminEmail:    *email,
		AdminPassword: *password,
		Students:      *students,
		Theses:        *theses,
	}); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger, fakerSeed int64, opts seed.Options) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exit

	if err := core.Migrate(ctx, db.DB); err != nil {
		return err
	}

	files, err := storage.NewLocal(cfg.Storage)
	if err != nil {
		return err
	}

	summary, err := seed.New(db.DB, files, logger, fakerSeed).Run(ctx, opts)
	if err != nil {
		return err
	}

	logger.Info("seed complete",
		"departments", summary.Departments,
		"students", summary.Students,
		"theses", summary.Theses,
	)
	return nil
}
