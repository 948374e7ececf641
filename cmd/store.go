package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

// openStore opens the SQLite store for commands that need nothing else.
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
