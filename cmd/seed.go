package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noovy/concierge/internal/config"
	"github.com/noovy/concierge/internal/knowledge"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.json]",
	Short: "Seed the knowledge base, optionally importing items from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		if dataDir == "" {
			dataDir = config.DataDir()
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}

		kb := knowledge.NewKeywordStore(dataDir)
		defer kb.Close()

		ctx := context.Background()
		if err := knowledge.Seed(ctx, kb); err != nil {
			return err
		}

		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ids, err := knowledge.Import(ctx, kb, data)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d items from %s\n", len(ids), args[0])
		}

		fmt.Printf("Knowledge base ready with %d items\n", kb.Count())
		return nil
	},
}

func init() {
	seedCmd.Flags().String("data-dir", "", "data storage directory")
	rootCmd.AddCommand(seedCmd)
}
