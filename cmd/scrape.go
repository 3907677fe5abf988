package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noovy/concierge/internal/config"
	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Crawl a documentation site into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		if dataDir == "" {
			dataDir = config.DataDir()
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		maxPages, _ := cmd.Flags().GetInt("max-pages")
		category, _ := cmd.Flags().GetString("category")

		kb := knowledge.NewKeywordStore(dataDir)
		defer kb.Close()

		sc := scraper.New(kb)
		pages, err := sc.Crawl(context.Background(), args[0], maxPages, category)
		if err != nil && len(pages) == 0 {
			return err
		}

		for _, p := range pages {
			fmt.Printf("  %s (%d words, %s)\n", p.URL, p.WordCount, p.Language)
		}
		fmt.Printf("Added %d pages; knowledge base now has %d items\n", len(pages), kb.Count())
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("data-dir", "", "data storage directory")
	scrapeCmd.Flags().Int("max-pages", 10, "maximum pages to crawl")
	scrapeCmd.Flags().String("category", "scraped", "knowledge category for crawled pages")
	rootCmd.AddCommand(scrapeCmd)
}
