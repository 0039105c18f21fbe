package cmd

import (
	"github.com/spf13/cobra"

	"github.com/numisight/numisight/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize numisight configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the vision provider, catalog database and image folders, and writes numisight.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
