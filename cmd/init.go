package cmd

import (
	"github.com/spf13/cobra"

	"github.com/charitybridge/nico/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize nico configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure nico and generates a .nico.yml file with a fresh session-signing secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
