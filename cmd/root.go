package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/config"
	"github.com/nalibo/nalibopath/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "nalibo",
	Short: "Learn the Nalibo language in your terminal",
	Long:  "Nalibo Path: a terminal course in the constructed language Nalibo, with lessons, exercises and an optional AI tutor.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides NALIBO_DB env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env and the environment, then applies the --db flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then NALIBO_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.ResolveDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
