package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerVersionsCmd(rootCmd *cobra.Command) {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "list published versions, oldest first",
		RunE:  runVersions,
	}

	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	service, cleanup, err := newArchiveService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	versions, err := service.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("no published versions")
		return nil
	}

	for i, version := range versions {
		if i == len(versions)-1 {
			fmt.Printf("%s (latest)\n", version)
		} else {
			fmt.Println(version)
		}
	}
	return nil
}
