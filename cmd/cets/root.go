package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/archive"
	"github.com/cets-data/cets-schema/internal/config"
	"github.com/cets-data/cets-schema/internal/db"
	"github.com/cets-data/cets-schema/internal/repository"
)

// releaseVersion is the tool's own version, stamped at build time via
// -ldflags "-X main.releaseVersion=...".
var releaseVersion = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cets",
		Short:         "Manage the cryo-electron tomography schema standard",
		Long:          "Validate the schema source, generate model code and documentation, and manage the versioned archive of published schema releases.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("config", ".", "directory containing config.yaml")

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(dir)
}

// newArchiveService builds the archive service against the configured storage
// backend. The returned cleanup closes the database pool for the postgres
// backend and is a no-op for the filesystem one.
func newArchiveService(ctx context.Context, cfg config.Config) (*archive.Service, func(), error) {
	switch cfg.Storage.Backend {
	case "", "fs":
		repo := repository.NewFSSchemaVersionRepository(cfg.ArchiveDir)
		return archive.NewService(repo), func() {}, nil
	case "postgres":
		conn, err := db.NewConnection(ctx, cfg.Storage.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		repo := repository.NewPostgresSchemaVersionRepository(conn)
		return archive.NewService(repo), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
