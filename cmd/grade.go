package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/grading"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <specimen-id> <answer...>",
	Short: "Grade one answer against a stored specimen",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hintsUsed, _ := cmd.Flags().GetInt("hints")
		asJSON, _ := cmd.Flags().GetBool("json")
		if hintsUsed < 0 {
			return fmt.Errorf("--hints must not be negative")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.SpecimenRepo().GetSpecimen(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		r := grading.Grade(strings.Join(args[1:], " "), rec, hintsUsed)
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		fmt.Fprintf(out, "Tier:     %s\n", r.MatchTier.DisplayName())
		fmt.Fprintf(out, "Correct:  %v\n", r.IsCorrect)
		fmt.Fprintf(out, "Score:    %d (base %d, hint penalty %d)\n", r.FinalScore, r.BaseScore, r.HintPenalty)
		fmt.Fprintf(out, "Feedback: %s\n", r.FeedbackTier.Feedback())
		return nil
	},
}

func init() {
	gradeCmd.Flags().Int("hints", 0, "Hints already revealed")
	gradeCmd.Flags().Bool("json", false, "Print the result as JSON")
}
