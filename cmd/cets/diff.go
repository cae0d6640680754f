package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
)

func registerDiffCmd(rootCmd *cobra.Command) {
	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "compare two published versions, or the draft against the latest",
		Long:  "Without flags, compares the schema source draft against the latest published version. With --from and --to, compares two published versions.",
		RunE:  runDiff,
	}

	diffCmd.Flags().String("from", "", "published version to diff from")
	diffCmd.Flags().String("to", "", "published version to diff to")
	diffCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	service, cleanup, err := newArchiveService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	var (
		diff domain.SchemaDiff
		text string
	)
	switch {
	case from != "" && to != "":
		diff, text, err = service.Diff(cmd.Context(), from, to)
	case from == "" && to == "":
		path, _ := cmd.Flags().GetString("schema")
		if path == "" {
			path = cfg.SchemaPath
		}
		var draft domain.SchemaDocument
		draft, err = loader.Load(path)
		if err != nil {
			return err
		}
		diff, text, err = service.DiffDraft(cmd.Context(), draft)
	default:
		return fmt.Errorf("--from and --to must be given together")
	}
	if err != nil {
		return err
	}

	if diff.Empty() {
		fmt.Println("no changes")
		return nil
	}

	fmt.Printf("classification: %s\n\n", diff.Classify())
	for _, line := range diff.Summary() {
		fmt.Printf("  %s\n", line)
	}
	fmt.Printf("\n%s", text)
	return nil
}
