package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/schema/validator"
)

func registerValidateCmd(rootCmd *cobra.Command) {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "validate the schema source",
		RunE:  runValidate,
	}

	validateCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
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

	fmt.Printf("%s is valid: %d entities\n", path, len(doc.Entities))
	return nil
}
