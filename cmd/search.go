package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/numisight/numisight/internal/config"
	"github.com/numisight/numisight/internal/page"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a running server's catalog and the web",
	Long:  `Sends the query to a running numisight server, exactly as the page does, and prints the rendered catalog and web results.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var identifyCmd = &cobra.Command{
	Use:   "identify [image]",
	Short: "Identify a coin photo with a running server",
	Long:  `Uploads the image to a running numisight server, exactly as the page does, and prints the AI prediction and related results.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, identifyCmd} {
		c.Flags().String("server", "", "server base URL (overrides client.base_url)")
		c.Flags().Bool("json", false, "print the raw API response as JSON")
		rootCmd.AddCommand(c)
	}
}

// clientSetup loads the config and builds an API client for the server.
func clientSetup(cmd *cobra.Command) (*config.Config, *page.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	baseURL := cfg.Client.BaseURL
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		baseURL = s
	}
	return cfg, page.NewClient(baseURL, &http.Client{Timeout: cfg.Client.Timeout}), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("query is empty")
	}
	cfg, client, err := clientSetup(cmd)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		resp, err := client.Search(context.Background(), query)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}

	return runOnPage(cfg, client, func(ctrl *page.Controller) *page.Action {
		return ctrl.SubmitTextSearch(context.Background(), query)
	})
}

func runIdentify(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	upload := page.FileUpload(args[0])

	cfg, client, err := clientSetup(cmd)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		resp, err := client.Identify(context.Background(), upload)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}

	return runOnPage(cfg, client, func(ctrl *page.Controller) *page.Action {
		return ctrl.SubmitImageIdentify(context.Background(), &upload)
	})
}

// runOnPage drives the page controller over an in-memory page and prints
// what it rendered.
func runOnPage(cfg *config.Config, client *page.Client, start func(*page.Controller) *page.Action) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	doc := page.NewDocument()
	els, err := page.Bind(doc.Lookup)
	if err != nil {
		return err
	}

	if err := start(page.New(els, client, log)).Wait(); err != nil {
		return err
	}
	printPage(os.Stdout, doc)
	return nil
}

func printPage(w io.Writer, doc *page.Document) {
	printed := false
	if pred := strings.TrimSpace(doc.Node(page.IDPrediction).Text()); pred != "" {
		fmt.Fprintf(w, "%s\n\n", pred)
		printed = true
	}
	printed = printSection(w, "Catalog", doc.Node(page.IDDatabaseSection), doc.Node(page.IDDatabaseResults)) || printed
	printed = printSection(w, "Web", doc.Node(page.IDWebSection), doc.Node(page.IDWebResults)) || printed
	if !printed {
		fmt.Fprintln(w, "No results found.")
	}
}

func printSection(w io.Writer, title string, section, results *page.Node) bool {
	if !section.Visible() {
		return false
	}
	cards := results.ByClass("result-card")
	fmt.Fprintf(w, "%s (%d):\n\n", title, len(cards))
	for i, card := range cards {
		for j, line := range cardLines(card) {
			if j == 0 {
				fmt.Fprintf(w, "  %d. %s\n", i+1, line)
			} else {
				fmt.Fprintf(w, "     %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}
	return true
}

// cardLines flattens a card into one line per heading, paragraph, image or
// link.
func cardLines(n *page.Node) []string {
	var lines []string
	for _, c := range n.Children() {
		switch c.Tag() {
		case "h3", "p":
			if t := strings.TrimSpace(c.Text()); t != "" {
				lines = append(lines, t)
			}
		case "img":
			lines = append(lines, "Image: "+c.Attr("src"))
		case "a":
			lines = append(lines, "Link: "+c.Attr("href"))
		default:
			lines = append(lines, cardLines(c)...)
		}
	}
	return lines
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
