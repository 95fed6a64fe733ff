package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charitybridge/nico/internal/agent"
	"github.com/charitybridge/nico/internal/chat"
	"github.com/charitybridge/nico/internal/history"
	"github.com/charitybridge/nico/internal/server"
)

var serveAllowAll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the website API and chat assistant server",
	Long: `Starts the HTTP server: the children and FAQ catalogs, chat session
issuance, and the WebSocket chat assistant. Expects an imported
database (nico import) and a built search index (nico sync).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
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
			// The store may be empty if sync has not run yet.
			fmt.Fprintf(os.Stderr, "Warning: could not load search index from %s: %v\n", cfg.DataDir, err)
			fmt.Fprintf(os.Stderr, "Chat retrieval will be empty. Run `nico sync` first.\n")
		}

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		historyStore := history.NewStore(database, time.Duration(cfg.HistoryTTLMinutes)*time.Minute)

		orchestrator := agent.New(agent.Deps{
			Provider: provider,
			Model:    cfg.Model,
			History:  historyStore,
			Vectors:  vectors,
			Children: childStore,
			FAQs:     faqStore,
		})

		chatHandler := chat.NewHandler(orchestrator, historyStore, cfg.SessionSecret)

		srv := server.New(server.Config{
			Addr:          cfg.Addr,
			SessionSecret: cfg.SessionSecret,
			AllowAll:      serveAllowAll,
		}, childStore, faqStore, chatHandler)

		// Expired history is pruned in the background while serving.
		pruneCtx, cancelPrune := context.WithCancel(context.Background())
		defer cancelPrune()
		go pruneLoop(pruneCtx, historyStore)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Printf("received %s, shutting down", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

// pruneLoop deletes expired chat history every few minutes.
func pruneLoop(ctx context.Context, store *history.Store) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PruneExpired(ctx)
			if err != nil {
				log.Printf("pruning chat history: %v", err)
				continue
			}
			if n > 0 && verbose {
				log.Printf("pruned %d expired chat messages", n)
			}
		}
	}
}

func init() {
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
