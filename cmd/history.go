package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/numisight/numisight/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches and identifications",
	RunE:  runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history entries older than a given age",
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().String("kind", "", "filter by kind: search, identify")
	historyCmd.Flags().String("status", "", "filter by status: ok, error")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete entries older than this")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), database.Close, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, closeDB, err := openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	entries, err := store.Query(context.Background(), history.QueryFilter{
		Kind:   history.Kind(kind),
		Status: history.Status(status),
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	if asJSON {
		if entries == nil {
			entries = []history.Entry{}
		}
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tSTATUS\tSUBJECT\tDB\tWEB\tDURATION")
	for _, e := range entries {
		subject := e.Query
		if e.Kind == history.KindIdentify {
			subject = e.PredictedClass
			if e.Probability != nil {
				subject = fmt.Sprintf("%s (%.2f)", subject, *e.Probability)
			}
		}
		if e.Status == history.StatusError {
			subject = fmt.Sprintf("%s [%s]", subject, e.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Kind, e.Status, subject,
			e.DatabaseCount, e.WebCount, e.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	store, closeDB, err := openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := store.DeleteBefore(context.Background(), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d history entries older than %s\n", n, olderThan)
	return nil
}
