package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noovy/concierge/internal/config"
	"github.com/noovy/concierge/internal/store"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stale persisted sessions from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = config.DBPath()
		}
		maxAgeStr, _ := cmd.Flags().GetString("max-age")
		maxAge, err := time.ParseDuration(maxAgeStr)
		if err != nil {
			return err
		}

		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := db.CleanupSessions(maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d sessions idle for more than %s\n", removed, maxAge)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().String("db", "", "path to the SQLite database")
	cleanupCmd.Flags().String("max-age", "24h", "delete sessions idle longer than this")
	rootCmd.AddCommand(cleanupCmd)
}
