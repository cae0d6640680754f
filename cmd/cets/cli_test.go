package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cets-data/cets-schema/internal/archive"
	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/repository"
)

const baseSchema = `name: cets
description: Cryo-electron tomography metadata standard.
entities:
  - name: Tomogram
    fields:
      - name: path
        type: string
      - name: voxel_size
        type: float
`

const extendedSchema = baseSchema + `      - name: ctf_corrected
        type: boolean
`

// newTestWorkspace writes a config.yaml, a draft schema and an empty archive
// directory under a temp dir, and returns the dir.
func newTestWorkspace(t *testing.T, draft string) string {
	t.Helper()
	dir := t.TempDir()

	schemaPath := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(schemaPath, []byte(draft), 0o644); err != nil {
		t.Fatalf("failed to write draft: %v", err)
	}

	cfg := fmt.Sprintf("schema:\n  path: %s\narchive:\n  dir: %s\n",
		schemaPath, filepath.Join(dir, "versions"))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return dir
}

func publishVersion(t *testing.T, dir, source string, class domain.ChangeClass, changelog string) {
	t.Helper()
	doc, err := loader.Parse([]byte(source))
	if err != nil {
		t.Fatalf("failed to parse source: %v", err)
	}
	repo := repository.NewFSSchemaVersionRepository(filepath.Join(dir, "versions"))
	service := archive.NewService(repo)
	if _, err := service.Publish(context.Background(), doc, class, changelog); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd := newRootCmd()
	registerValidateCmd(rootCmd)
	registerDiffCmd(rootCmd)
	registerProposalCmd(rootCmd)
	registerExportCmd(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestExportCommand_ChangeReportCSV(t *testing.T) {
	dir := newTestWorkspace(t, extendedSchema)
	publishVersion(t, dir, baseSchema, domain.ChangeClassMinor, "Initial release.")
	publishVersion(t, dir, extendedSchema, domain.ChangeClassMinor, "Add ctf_corrected.")

	out := filepath.Join(dir, "report.csv")
	err := runCLI(t, "export", "--config", dir,
		"--from", "1.0.0", "--to", "1.1.0", "--format", "csv", "--out", out)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected CSV output, got a zip container")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Kind,Entity,Field,Detail,Classification" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	found := false
	for _, line := range lines {
		if strings.HasPrefix(line, "field added,Tomogram,ctf_corrected,") {
			found = true
		}
	}
	if !found {
		t.Errorf("report does not enumerate the added field:\n%s", data)
	}
}

func TestExportCommand_ChangeReportXLSX(t *testing.T) {
	dir := newTestWorkspace(t, extendedSchema)
	publishVersion(t, dir, baseSchema, domain.ChangeClassMinor, "Initial release.")
	publishVersion(t, dir, extendedSchema, domain.ChangeClassMinor, "Add ctf_corrected.")

	out := filepath.Join(dir, "report.xlsx")
	err := runCLI(t, "export", "--config", dir,
		"--from", "1.0.0", "--to", "1.1.0", "--out", out)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected xlsx output")
	}
}

func TestExportCommand_RejectsUnknownFormat(t *testing.T) {
	dir := newTestWorkspace(t, baseSchema)

	err := runCLI(t, "export", "--config", dir,
		"--format", "pdf", "--out", filepath.Join(dir, "out.pdf"))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestProposalCommand(t *testing.T) {
	dir := newTestWorkspace(t, extendedSchema)
	publishVersion(t, dir, baseSchema, domain.ChangeClassMinor, "Initial release.")

	err := runCLI(t, "proposal", "--config", dir,
		"--title", "Record CTF correction on tomograms",
		"--class", "minor",
		"--changelog", "Add ctf_corrected to Tomogram.")
	if err != nil {
		t.Fatalf("proposal failed: %v", err)
	}
}

func TestProposalCommand_RejectsMismatchedClass(t *testing.T) {
	dir := newTestWorkspace(t, extendedSchema)
	publishVersion(t, dir, baseSchema, domain.ChangeClassMinor, "Initial release.")

	err := runCLI(t, "proposal", "--config", dir,
		"--title", "Record CTF correction on tomograms",
		"--class", "patch",
		"--changelog", "Add ctf_corrected to Tomogram.")
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("expected declared class mismatch, got %v", err)
	}
}
