package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/generator"
	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/schema/validator"
)

func registerDocsCmd(rootCmd *cobra.Command) {
	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "render the schema documentation to stdout or a file",
		RunE:  runDocs,
	}

	docsCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")
	docsCmd.Flags().String("out", "", "write to this file instead of stdout")

	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("schema")
	if path == "" {
		path = cfg.SchemaPath
	}

	doc, err := loader.Load(path)
	if err != nil {
		return err
	}
	if err := validator.ValidateDocument(doc); err != nil {
		return err
	}

	rendered, err := generator.GenerateDocs(doc)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Print(string(rendered))
		return nil
	}
	return os.WriteFile(out, rendered, 0o644)
}
