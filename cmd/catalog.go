package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/numisight/numisight/internal/progress"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the coin catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [file.yml]",
	Short: "Import dynasty keys and coins from a YAML catalog",
	Long: `Imports a YAML catalog keyed by period (ancient, medieval, modern). Each
period lists dynasty keys (code, dynasty, king_name) and coins (s_no, code,
details). Rows with an existing code or serial number are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of dynasty keys and coins per period",
	RunE:  runCatalogStats,
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd, catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := newCatalogStore(cfg, database)
	if err != nil {
		return err
	}

	res, err := store.Import(context.Background(), f, progress.NewReporter("Importing catalog"))
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d dynasty keys and %d coins into %s\n", res.Keys, res.Coins, database.Path())
	return nil
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := newCatalogStore(cfg, database)
	if err != nil {
		return err
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tKEYS\tCOINS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Period, s.Keys, s.Coins)
	}
	return tw.Flush()
}
