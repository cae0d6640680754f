package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/governance"
	"github.com/cets-data/cets-schema/internal/loader"
)

func registerProposalCmd(rootCmd *cobra.Command) {
	proposalCmd := &cobra.Command{
		Use:   "proposal",
		Short: "open a change proposal for the draft against the latest version",
		Long:  "Diffs the schema source against the latest published version and opens a change proposal enumerating every change, with one pending review per stakeholder group.",
		RunE:  runProposal,
	}

	proposalCmd.Flags().String("schema", "", "schema source file (defaults to the configured path)")
	proposalCmd.Flags().String("title", "", "proposal title")
	proposalCmd.Flags().String("class", "", `declared change class ("major", "minor" or "patch")`)
	proposalCmd.Flags().String("changelog", "", "changelog text for the proposed release")
	proposalCmd.Flags().StringSlice("groups", []string{"acquisition", "processing", "deposition"}, "stakeholder groups that must review")
	proposalCmd.Flags().Duration("window", governance.DefaultReviewWindow, "review window before silence counts as approval")

	_ = proposalCmd.MarkFlagRequired("title")
	_ = proposalCmd.MarkFlagRequired("class")
	_ = proposalCmd.MarkFlagRequired("changelog")

	rootCmd.AddCommand(proposalCmd)
}

func runProposal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("schema")
	if path == "" {
		path = cfg.SchemaPath
	}

	draft, err := loader.Load(path)
	if err != nil {
		return err
	}

	service, cleanup, err := newArchiveService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	diff, _, err := service.DiffDraft(cmd.Context(), draft)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	class, _ := cmd.Flags().GetString("class")
	changelog, _ := cmd.Flags().GetString("changelog")
	groupNames, _ := cmd.Flags().GetStringSlice("groups")
	window, _ := cmd.Flags().GetDuration("window")

	groups := make([]governance.StakeholderGroup, len(groupNames))
	for i, name := range groupNames {
		groups[i] = governance.StakeholderGroup(name)
	}

	proposal, err := governance.NewChangeProposal(
		title, diff, domain.ChangeClass(class), changelog, groups,
		governance.WithReviewWindow(window),
	)
	if err != nil {
		return err
	}

	fmt.Printf("proposal %s: %s\n", proposal.ID, proposal.Title)
	fmt.Printf("declared class: %s\n", proposal.DeclaredClass)
	fmt.Printf("review deadline: %s\n\n", proposal.Deadline.Format(time.RFC3339))
	for _, line := range proposal.Diff.Summary() {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()

	reviewers := make([]string, 0, len(proposal.Reviews))
	for group := range proposal.Reviews {
		reviewers = append(reviewers, string(group))
	}
	sort.Strings(reviewers)
	for _, group := range reviewers {
		fmt.Printf("%s: %s\n", group, proposal.Reviews[governance.StakeholderGroup(group)])
	}
	return nil
}
