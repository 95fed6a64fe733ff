package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/config"
	"github.com/charitybridge/nico/internal/db"
	"github.com/charitybridge/nico/internal/embeddings"
	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/llm"
	"github.com/charitybridge/nico/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `nico init` to create a config file", err)
	}
	return cfg, nil
}

// openDatabase opens the SQLite datastore inside the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "nico.db"))
}

// openStores opens the datastore and its typed stores.
func openStores(cfg *config.Config) (*db.DB, *children.Store, *faqs.Store, error) {
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, children.NewStore(database), faqs.NewStore(database), nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	return embeddings.NewEmbedder(string(provider), cfg.EmbeddingModel)
}

// createVectorStoreFromConfig creates the vector store with the
// configured hybrid search blend.
func createVectorStoreFromConfig(cfg *config.Config) (*vectordb.Store, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return vectordb.NewStore(embedder,
		vectordb.WithHybridWeights(cfg.Search.QuestionWeight, cfg.Search.AnswerWeight))
}

// createLLMProviderFromConfig creates the LLM provider, rate limited
// when the config asks for it.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}
