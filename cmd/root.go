package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "flashfungi",
	Short: "Mushroom identification flashcard trainer",
	Long: "flashfungi quizzes you on mushroom specimens, grades free-text identifications " +
		"with partial credit, and awards achievements as you learn.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FLASHFUNGI_DB env var)")
	rootCmd.PersistentFlags().String("user", defaultUser(), "Learner id")
	rootCmd.PersistentFlags().String("env-file", "", "Load variables from this .env file (default ./.env)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log format: dev or prod (overrides FLASHFUNGI_LOG_MODE)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides FLASHFUNGI_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("catalog", "", "Achievement catalog YAML (overrides FLASHFUNGI_CATALOG)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(maintainCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then FLASHFUNGI_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func defaultUser() string {
	if u := os.Getenv("FLASHFUNGI_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
