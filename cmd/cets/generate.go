package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/generator"
	"github.com/cets-data/cets-schema/internal/loader"
)

func registerGenerateCmd(rootCmd *cobra.Command) {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate model code and documentation from the schema source",
		RunE:  runGenerate,
	}

	generateCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")
	generateCmd.Flags().String("out", "", "output directory (defaults to the configured path)")
	generateCmd.Flags().String("package", "", "package name for generated models")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("schema")
	if path == "" {
		path = cfg.SchemaPath
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.OutputDir
	}
	pkg, _ := cmd.Flags().GetString("package")
	if pkg == "" {
		pkg = cfg.ModelsPackage
	}

	doc, err := loader.Load(path)
	if err != nil {
		return err
	}

	artifacts, err := generator.Generate(doc, generator.Options{Package: pkg})
	if err != nil {
		return err
	}
	if err := generator.WriteArtifacts(out, artifacts); err != nil {
		return err
	}

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("wrote %s/%s\n", out, name)
	}
	return nil
}
