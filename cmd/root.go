package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the workspacemcp application
var rootCmd = &cobra.Command{
	Use:   "workspacemcp",
	Short: "MCP server exposing Google Workspace APIs as tools",
	Long: `workspacemcp is a Model Context Protocol (MCP) server that exposes Google
Workspace APIs (Gmail, Drive, Calendar, Docs, Sheets, Chat, Forms, Slides,
Tasks, Contacts, Custom Search and Apps Script) as callable tools for AI
assistants.

It can run as:
  - A stdio MCP server for local clients (default)
  - A streamable HTTP MCP server fronted by OAuth 2.1 authentication`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workspacemcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
