package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"presusimple/internal/config"
	"presusimple/internal/database"
	"presusimple/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBDriver != config.DriverPostgres {
		return fmt.Errorf("migrations only run against postgres, DB_DRIVER is %q", cfg.DBDriver)
	}

	log := logger.Get()

	switch command := os.Args[1]; command {
	case "up":
		return database.RunMigrations(cfg.PostgresURL(), func(m *migrate.Migrate) error {
			return m.Up()
		})

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
		}
		if err := database.RunMigrations(cfg.PostgresURL(), func(m *migrate.Migrate) error {
			return m.Steps(-steps)
		}); err != nil {
			return err
		}
		log.Infof("Rolled back %d migration(s)", steps)
		return nil

	case "version":
		return database.RunMigrations(cfg.PostgresURL(), func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			log.Infof("Version: %d, Dirty: %v", version, dirty)
			return nil
		})

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", command)
	}
}
