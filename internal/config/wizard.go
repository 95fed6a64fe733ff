package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// modelPresets lists the chat and embedding models offered per provider.
var modelPresets = map[ProviderType]struct {
	Models         []string
	EmbeddingModel string
}{
	ProviderOpenAI: {
		Models:         []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
		EmbeddingModel: "text-embedding-3-small",
	},
	ProviderOllama: {
		Models:         []string{"llama3", "llama3:70b", "mistral"},
		EmbeddingModel: "nomic-embed-text",
	},
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .nico.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to nico! Let's configure your charity assistant.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := modelPresets[provider]

	// 2. Chat model.
	modelPrompt := promptui.Select{
		Label: "Select chat model",
		Items: preset.Models,
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (database and search index)",
		Default: "data",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Listen address.
	addrPrompt := promptui.Prompt{
		Label:   "Listen address",
		Default: ":8080",
	}
	addr, err := addrPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen address: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.EmbeddingProvider = provider
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.DataDir = dataDir
	cfg.Addr = addr
	cfg.SessionSecret = newSecret()

	envVar := APIKeyEnvVar(provider)
	if envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running nico serve.\n", envVar)
	}

	configPath := ".nico.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// newSecret generates a random session-signing secret.
func newSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
