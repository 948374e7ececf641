package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study sessions and achievement progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		user := currentUser(cmd)

		rt, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		out := cmd.OutOrStdout()
		eventRepo := rt.store.EventRepo()

		sessions, err := eventRepo.QuerySessionSummaries(ctx, store.QueryOpts{UserID: user, Limit: limit})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		fmt.Fprintf(out, "Recent sessions for %s\n", user)
		fmt.Fprintln(out, strings.Repeat("─", 72))
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions yet.")
		}
		for _, s := range sessions {
			genus := s.Genus
			if genus == "" {
				genus = "mixed"
			}
			fmt.Fprintf(out, "%-19s  %-14s  %3d/%-3d correct  score %-5d  streak %-3d  %ds\n",
				s.RecordedAt.Local().Format("2006-01-02 15:04:05"), genus,
				s.CorrectCount, s.TotalCount, s.CumulativeScore, s.LongestStreak, s.DurationSecs)
		}

		byCategory, total, err := eventRepo.AwardCounts(ctx, user)
		if err != nil {
			return fmt.Errorf("count awards: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Achievements earned: %d\n", total)
		categories := make([]string, 0, len(byCategory))
		for c := range byCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(out, "  %-12s %d\n", c, byCategory[c])
		}

		statuses, err := rt.service.Status(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, s := range statuses {
			mark := " "
			if s.EarnedAt != nil {
				mark = "✓"
			}
			fmt.Fprintf(out, "[%s] %-24s %-10s %d/%d\n",
				mark, s.Definition.Name, s.Definition.Rarity.DisplayName(), min(s.Progress, s.Target), s.Target)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("limit", 10, "Number of sessions to show")
}
