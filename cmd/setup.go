package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/shared"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidFlag, path)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add Spotify client credentials and an Apple Music token or signing key\n")
	return r.writePlain("2. Run 'songmatch auth check' to verify them\n")
}

// SetupDatabase initializes the database and runs migrations.
//
// --status reports the schema version instead, and --rollback undoes the latest migration.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("status") && cmd.Bool("rollback") {
		return fmt.Errorf("%w: --status and --rollback are mutually exclusive", shared.ErrInvalidFlag)
	}

	cfg := r.config.Database
	r.logger.Info("initializing database", "path", cfg.Path)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	switch {
	case cmd.Bool("status"):
		return r.migrationStatus(db, cfg.Path)
	case cmd.Bool("rollback"):
		version, err := shared.RollbackMigration(db)
		if err != nil {
			return err
		}
		r.logger.Info("rolled back migration", "version", version)
		return r.writePlain("✓ Rolled back migration %d in %s\n", version, cfg.Path)
	}

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if len(applied) == 0 {
		return r.writePlain("✓ Database %s is up to date\n", cfg.Path)
	}
	return r.writePlain("✓ Database %s ready (applied migrations %v)\n", cfg.Path, applied)
}

func (r *Runner) migrationStatus(db *sql.DB, path string) error {
	current, pending, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	if current < 0 {
		r.writePlain("Database %s has no applied migrations\n", path)
	} else {
		r.writePlain("Database %s is at migration %d\n", path, current)
	}
	if len(pending) == 0 {
		return r.writePlain("✓ No pending migrations\n")
	}
	return r.writePlain("Pending migrations: %v (run 'songmatch setup database')\n", pending)
}
