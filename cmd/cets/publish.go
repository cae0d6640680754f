package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
)

func registerPublishCmd(rootCmd *cobra.Command) {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "publish the schema source as the next immutable version",
		RunE:  runPublish,
	}

	publishCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")
	publishCmd.Flags().String("class", "", `declared change class ("major", "minor" or "patch")`)
	publishCmd.Flags().String("changelog", "", "changelog text for this release")
	publishCmd.Flags().String("changelog-file", "", "read the changelog from this file instead")

	_ = publishCmd.MarkFlagRequired("class")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("schema")
	if path == "" {
		path = cfg.SchemaPath
	}

	changelog, _ := cmd.Flags().GetString("changelog")
	if file, _ := cmd.Flags().GetString("changelog-file"); file != "" {
		if changelog != "" {
			return fmt.Errorf("--changelog and --changelog-file are mutually exclusive")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read changelog: %w", err)
		}
		changelog = strings.TrimSpace(string(data))
	}

	class, _ := cmd.Flags().GetString("class")

	draft, err := loader.Load(path)
	if err != nil {
		return err
	}

	service, cleanup, err := newArchiveService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	published, err := service.Publish(cmd.Context(), draft, domain.ChangeClass(class), changelog)
	if err != nil {
		return err
	}

	fmt.Printf("published %s\n", published.Version)
	return nil
}
