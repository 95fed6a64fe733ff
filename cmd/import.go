package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charitybridge/nico/internal/importer"
	"github.com/charitybridge/nico/internal/progress"
)

var (
	importChildrenFile string
	importFAQsFile     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import children and FAQ catalogs from CSV files",
	Long: `Loads CSV files into the datastore. Children CSVs carry the columns
name, age, gender, country, date_of_birth, profile_description and an
optional image_path; FAQ CSVs carry question and answer. Both expect a
header row. Run nico sync afterwards to rebuild the search index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importChildrenFile == "" && importFAQsFile == "" {
			return fmt.Errorf("nothing to import: pass --children and/or --faqs")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, childStore, faqStore, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := cmd.Context()

		if importChildrenFile != "" {
			im := importer.New(childStore, faqStore, progress.NewReporter("Importing children"))
			n, err := im.ImportChildren(ctx, importChildrenFile)
			if err != nil {
				return err
			}
			fmt.Printf("%d children imported from %s\n", n, importChildrenFile)
		}

		if importFAQsFile != "" {
			im := importer.New(childStore, faqStore, progress.NewReporter("Importing FAQs"))
			n, err := im.ImportFAQs(ctx, importFAQsFile)
			if err != nil {
				return err
			}
			fmt.Printf("%d FAQ entries imported from %s\n", n, importFAQsFile)
		}

		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importChildrenFile, "children", "", "children CSV file to import")
	importCmd.Flags().StringVar(&importFAQsFile, "faqs", "", "FAQ CSV file to import")
	rootCmd.AddCommand(importCmd)
}
