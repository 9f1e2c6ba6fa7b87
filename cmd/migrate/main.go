package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"book-network-backend/internal/config"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/migrations"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the book network database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(db *sql.DB) error {
				return goose.Up(db, ".")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(db *sql.DB) error {
				return goose.Down(db, ".")
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the status of every migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(db *sql.DB) error {
				return goose.Status(db, ".")
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDB(func(db *sql.DB) error {
				version, err := goose.GetDBVersion(db)
				if err != nil {
					return err
				}
				fmt.Printf("Current migration version: %d\n", version)
				return nil
			}),
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

// withDB opens the configured database and points goose at the embedded
// migrations before running fn.
func withDB(fn func(db *sql.DB) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("migrations need the postgres driver, got %q", cfg.Database.Driver)
		}
		logger.Initialize(cfg.Log.Level, cfg.Log.Format)

		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := migrations.Setup(); err != nil {
			return err
		}

		logger.Info("Running migrations", "command", cmd.Name(), "database", cfg.Database.Database)
		if err := fn(db); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		logger.Info("Migration command completed", "command", cmd.Name())
		return nil
	}
}
