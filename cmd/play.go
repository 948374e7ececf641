package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/achievements"
	"github.com/LieutenantJoseph/flashfungi/internal/events"
	"github.com/LieutenantJoseph/flashfungi/internal/hints"
	"github.com/LieutenantJoseph/flashfungi/internal/session"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a study session",
	Long: "Quiz yourself on stored specimens. Type a species name to answer, " +
		"? for a hint, or ! to give up.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		genus, _ := cmd.Flags().GetString("genus")
		count, _ := cmd.Flags().GetInt("count")

		rt, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		specimens, err := rt.store.SpecimenRepo().ListSpecimens(ctx, genus)
		if err != nil {
			return err
		}
		if len(specimens) == 0 {
			return errors.New("no specimens found; load some with `flashfungi import`")
		}
		rand.Shuffle(len(specimens), func(i, j int) {
			specimens[i], specimens[j] = specimens[j], specimens[i]
		})
		if count > 0 && count < len(specimens) {
			specimens = specimens[:count]
		}

		var opts []session.Option
		if genus != "" {
			opts = append(opts, session.WithGenus(genus))
		}
		q := &quiz{
			service: rt.service,
			events:  rt.store.EventRepo(),
			session: session.New(uuid.NewString(), currentUser(cmd), opts...),
			in:      bufio.NewScanner(cmd.InOrStdin()),
			out:     cmd.OutOrStdout(),
			now:     time.Now,
		}
		return q.run(ctx, specimens)
	},
}

func init() {
	playCmd.Flags().String("genus", "", "Only quiz specimens of this genus")
	playCmd.Flags().Int("count", 10, "Number of specimens (0 = all)")
}

// quiz drives one line-based study session.
type quiz struct {
	service *achievements.Service
	events  store.EventRepo
	session *session.Session
	in      *bufio.Scanner
	out     io.Writer
	now     func() time.Time
}

func (q *quiz) run(ctx context.Context, specimens []specimen.Record) error {
	start := q.now()
	if err := q.process(ctx, []events.Envelope{{
		ID:         q.session.ID() + "/start",
		UserID:     q.session.UserID(),
		OccurredAt: start,
		Event:      events.At(start),
	}}); err != nil {
		return err
	}

	for i, rec := range specimens {
		fmt.Fprintf(q.out, "\nSpecimen %d of %d (%s)\n", i+1, len(specimens), rec.ID)
		done, err := q.ask(ctx, rec)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	return q.finish(ctx)
}

// ask runs one question to resolution. It reports done when input ends.
func (q *quiz) ask(ctx context.Context, rec specimen.Record) (bool, error) {
	question := hints.NewQuestion(rec)

	for question.Phase() == hints.PhaseAnswering {
		fmt.Fprint(q.out, "> ")
		if !q.in.Scan() {
			fmt.Fprintln(q.out)
			return true, q.in.Err()
		}
		line := strings.TrimSpace(q.in.Text())

		var (
			tr  hints.Transition
			err error
		)
		switch line {
		case "":
			continue
		case "?":
			n, err := question.RequestHint()
			if errors.Is(err, hints.ErrNoHintsLeft) {
				fmt.Fprintln(q.out, "No hints left.")
				continue
			}
			if err != nil {
				return false, err
			}
			fmt.Fprintf(q.out, "Hint %d: %s\n", n, hintText(rec, n))
			continue
		case "!":
			tr, err = question.GiveUp()
		default:
			tr, err = question.Submit(line)
		}
		if err != nil {
			return false, err
		}

		if !tr.Resolved() {
			fmt.Fprintf(q.out, "%s Try again.\n", tr.Result.FeedbackTier.Feedback())
			fmt.Fprintf(q.out, "Hint %d: %s\n", tr.HintsRevealed, hintText(rec, tr.HintsRevealed))
			continue
		}

		r := tr.Result
		fmt.Fprintf(q.out, "%s %s: %d points", r.FeedbackTier.Feedback(), r.MatchTier.DisplayName(), r.FinalScore)
		if r.HintPenalty > 0 {
			fmt.Fprintf(q.out, " (-%d for hints)", r.HintPenalty)
		}
		fmt.Fprintln(q.out)
		if tr.ShowGuide {
			fmt.Fprintln(q.out, guideText(rec))
		}

		envs, err := q.session.Record(r, rec)
		if err != nil {
			return false, err
		}
		if err := q.process(ctx, envs); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (q *quiz) finish(ctx context.Context) error {
	summary, envs := q.session.End()
	if err := q.process(ctx, envs); err != nil {
		return err
	}

	if summary.Stats.TotalCount > 0 && q.events != nil {
		err := q.events.AppendSessionSummary(ctx, store.SessionSummaryData{
			SessionID:       summary.SessionID,
			UserID:          summary.UserID,
			Genus:           summary.Genus,
			TotalCount:      summary.Stats.TotalCount,
			CorrectCount:    summary.Stats.CorrectCount,
			CumulativeScore: summary.Stats.CumulativeScore,
			LongestStreak:   summary.Stats.LongestStreak,
			DurationSecs:    int(summary.Duration.Seconds()),
		})
		if err != nil {
			warn("could not save session summary: %v", err)
		}
	}

	fmt.Fprintln(q.out)
	fmt.Fprintf(q.out, "Session complete: %d/%d correct (%d%%), average score %d, longest streak %d\n",
		summary.Stats.CorrectCount, summary.Stats.TotalCount, summary.Accuracy,
		summary.AverageScore, summary.Stats.LongestStreak)
	for _, g := range summary.GenusResults {
		fmt.Fprintf(q.out, "  %-20s %d/%d\n", g.Genus, g.Correct, g.Attempted)
	}
	return nil
}

func (q *quiz) process(ctx context.Context, envs []events.Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	awards, err := q.service.ProcessBatch(ctx, envs)
	printAwards(q.out, awards)
	if err != nil {
		// The answer is already counted; events can be replayed later.
		warn("achievements not updated: %v", err)
	}
	return nil
}

// hintText returns the n-th hint for a specimen, from vague to specific.
func hintText(rec specimen.Record, n int) string {
	switch n {
	case 1:
		return "Family: " + rec.Family
	case 2:
		if g := []rune(rec.Genus); len(g) > 0 {
			return fmt.Sprintf("Genus starts with %q", string(g[0]))
		}
	case 3:
		return "Genus: " + rec.Genus
	case 4:
		if rec.CommonName != "" {
			return "Common name: " + rec.CommonName
		}
		if parts := strings.Fields(rec.SpeciesName); len(parts) > 1 {
			return fmt.Sprintf("Epithet starts with %q", string([]rune(parts[1])[0]))
		}
	}
	return "No further hints."
}

func guideText(rec specimen.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer: %s (%s, %s)", rec.SpeciesName, rec.Genus, rec.Family)
	if rec.CommonName != "" {
		fmt.Fprintf(&b, ", also called %s", rec.CommonName)
	}
	if rec.DNASequenced {
		b.WriteString(". DNA sequenced")
	}
	return b.String()
}
