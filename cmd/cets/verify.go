package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerVerifyCmd(rootCmd *cobra.Command) {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "audit the archive: changelogs, validity and version bumps",
		RunE:  runVerify,
	}

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	service, cleanup, err := newArchiveService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	violations, err := service.Verify(cmd.Context())
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		fmt.Println("archive is consistent")
		return nil
	}

	for _, v := range violations {
		fmt.Printf("%s: %s\n", v.Version, v.Message)
	}
	return fmt.Errorf("%d violation(s) found", len(violations))
}
