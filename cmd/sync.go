package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charitybridge/nico/internal/importer"
	"github.com/charitybridge/nico/internal/progress"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Build the semantic search index from the datastore",
	Long: `Embeds every FAQ entry and child profile with the configured embedding
model and persists the vector collections to the data directory. Run it
after every import.`,
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

		syncer := importer.NewSyncer(childStore, faqStore, vectors, progress.NewReporter("Building index"))
		if err := syncer.Sync(cmd.Context(), cfg.DataDir); err != nil {
			return err
		}

		fmt.Printf("Indexed %d FAQ entries and %d child profiles into %s\n",
			vectors.FAQCount(), vectors.ChildCount(), cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
