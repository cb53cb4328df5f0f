// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "issue-slots",
	Short: "An MCP server that turns closed GitHub issues into slot machine spins.",
	Long: `issue-slots is an MCP server exposing GitHub issue tools and a slot machine.
Every issue a user closed in a repository is worth one spin, and more closed
issues mean better odds. Run "issue-slots serve" to start the server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
