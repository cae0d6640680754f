package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerVersionCmd(rootCmd *cobra.Command) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "displays the version of cets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(releaseVersion)
		},
	}
	rootCmd.AddCommand(versionCmd)
}
