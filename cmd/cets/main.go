package main

import (
	"os"
)

func main() {
	rootCmd := newRootCmd()

	registerValidateCmd(rootCmd)
	registerGenerateCmd(rootCmd)
	registerDocsCmd(rootCmd)
	registerDiffCmd(rootCmd)
	registerProposalCmd(rootCmd)
	registerPublishCmd(rootCmd)
	registerVersionsCmd(rootCmd)
	registerVerifyCmd(rootCmd)
	registerExportCmd(rootCmd)
	registerServeCmd(rootCmd)
	registerVersionCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
