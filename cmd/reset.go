package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's achievement progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")
		user := currentUser(cmd)
		if !yes {
			return errors.New("reset deletes all achievement progress for " + user + "; rerun with --yes to confirm")
		}

		rt, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.progress.ResetUser(ctx, user); err != nil {
			return fmt.Errorf("reset %s: %w", user, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Achievement progress for %s deleted.\n", user)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
