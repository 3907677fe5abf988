package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "concierge-server",
	Short: "Concierge backend server",
	Long:  "Concierge backend — Hebrew-first support chatbot for hotel management systems, with per-session memory, a keyword knowledge base, and skill routing.",
}

func Execute() error {
	return rootCmd.Execute()
}
