package cmd

import "github.com/spf13/cobra"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "numisight",
	Short: "Coin identification by catalog search, web search and vision AI",
	Long: `numisight serves a coin identification page. Visitors search a catalog of
dynasties, kings and coin codes, or upload a photo that a vision model
classifies. Both modes add verified numismatic pages from the web.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "numisight.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
