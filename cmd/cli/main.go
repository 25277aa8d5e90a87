package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL  string
	token    string
	timeout  time.Duration
	currency string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bookkeeper-cli",
		Short:         "Bookkeeper CLI tool",
		Long:          `A command line interface for the bookkeeper ledger API and database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("BOOKKEEPER_URL", "http://localhost:8080"), "Base URL of the bookkeeper API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BOOKKEEPER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&currency, "currency", envOr("LEDGER_CURRENCY", "USD"), "Currency used to display amounts")

	rootCmd.AddCommand(ledgerCmd(), accountsCmd(), entriesCmd(), migrateCmd(), tokenCmd())
	return rootCmd
}

func newAPIClient() *apiClient {
	return &apiClient{baseURL: baseURL, token: token, timeout: timeout}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
