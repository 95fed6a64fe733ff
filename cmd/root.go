package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nico",
	Short: "Chat assistant and search backend for a child-sponsorship charity",
	Long: `Nico serves a charity website's assistant: a WebSocket chat backed by
an LLM that answers questions from the FAQ catalog and matches visitors
with sponsorable children through combined structured and semantic
search. It also ships the data tooling to import the catalogs and build
the search index, and an MCP server for AI agent integration.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".nico.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
