package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/config"
	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/export"
	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/schema/validator"
)

func registerExportCmd(rootCmd *cobra.Command) {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export review artifacts: a field inventory or a change report",
		Long:  "Without --from/--to, exports the field inventory of a published version (or the draft). With --from and --to, exports the change report between two published versions as a spreadsheet.",
		RunE:  runExport,
	}

	exportCmd.Flags().String("out", "", "output file (required)")
	exportCmd.Flags().String("format", "xlsx", `output format ("xlsx" or "csv")`)
	exportCmd.Flags().String("version", "", "published version to export (defaults to the draft)")
	exportCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")
	exportCmd.Flags().String("from", "", "change report: version to diff from")
	exportCmd.Flags().String("to", "", "change report: version to diff to")

	_ = exportCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("format")

	if (from == "") != (to == "") {
		return fmt.Errorf("--from and --to must be given together")
	}
	if format != "xlsx" && format != "csv" {
		return fmt.Errorf("unknown format %q", format)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	if from != "" {
		service, cleanup, err := newArchiveService(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		diff, _, err := service.Diff(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		if format == "csv" {
			err = export.WriteChangeReportCSV(from, to, diff, f)
		} else {
			err = export.WriteChangeReportXLSX(from, to, diff, f)
		}
		if err != nil {
			return err
		}
		fmt.Printf("wrote change report %s\n", out)
		return nil
	}

	doc, err := exportDocument(cmd, cfg)
	if err != nil {
		return err
	}

	if format == "csv" {
		err = export.WriteFieldInventoryCSV(doc, f)
	} else {
		err = export.WriteFieldInventoryXLSX(doc, f)
	}
	if err != nil {
		return err
	}

	fmt.Printf("wrote field inventory %s\n", out)
	return nil
}

// exportDocument resolves what to inventory: a published version when
// --version names one, the schema source draft otherwise.
func exportDocument(cmd *cobra.Command, cfg config.Config) (domain.SchemaDocument, error) {
	version, _ := cmd.Flags().GetString("version")
	if version != "" {
		service, cleanup, err := newArchiveService(cmd.Context(), cfg)
		if err != nil {
			return domain.SchemaDocument{}, err
		}
		defer cleanup()

		sv, err := service.Get(cmd.Context(), version)
		if err != nil {
			return domain.SchemaDocument{}, err
		}
		return sv.Document, nil
	}

	path, _ := cmd.Flags().GetString("schema")
	if path == "" {
		path = cfg.SchemaPath
	}
	doc, err := loader.Load(path)
	if err != nil {
		return domain.SchemaDocument{}, err
	}
	if err := validator.ValidateDocument(doc); err != nil {
		return domain.SchemaDocument{}, err
	}
	return doc, nil
}
