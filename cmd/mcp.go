package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/charitybridge/nico/internal/agent"
	mcpserver "github.com/charitybridge/nico/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the FAQ and child search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, childStore, faqStore, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		vectors, err := createVectorStoreFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}
		if err := vectors.Load(cmd.Context(), cfg.DataDir); err != nil {
			// Stdout carries the protocol; warnings go to stderr.
			fmt.Fprintf(os.Stderr, "Warning: could not load search index from %s: %v\n", cfg.DataDir, err)
			fmt.Fprintf(os.Stderr, "Search results will be empty. Run `nico sync` first.\n")
		}

		// The MCP surface reuses the chat orchestrator's retrieval; no
		// LLM provider or history is needed for it.
		orchestrator := agent.New(agent.Deps{
			Vectors:  vectors,
			Children: childStore,
			FAQs:     faqStore,
		})

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "nico MCP server started on stdio (faqs=%d, children=%d)\n",
			vectors.FAQCount(), vectors.ChildCount())

		srv := mcpserver.NewServer(orchestrator)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
