package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/scheduler"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Prune old processed-event records",
	Long: "Remove processed-event dedup records older than FLASHFUNGI_EVENT_RETENTION. " +
		"Runs every FLASHFUNGI_PRUNE_INTERVAL until interrupted, or once with --once.",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		s := scheduler.New(rt.progress, rt.cfg.EventRetention, rt.cfg.PruneInterval,
			rt.log.With("job", "prune"))
		if once {
			n, err := s.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("prune event log: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d processed-event records.\n", n)
			return nil
		}

		rt.log.Info("maintenance started", "interval", rt.cfg.PruneInterval.String(), "retention", rt.cfg.EventRetention.String())
		return s.Run(ctx)
	},
}

func init() {
	maintainCmd.Flags().Bool("once", false, "Prune once and exit")
}
