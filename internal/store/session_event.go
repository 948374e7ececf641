package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionEventRow struct {
	Sequence        int64  `db:"sequence"`
	RecordedAt      int64  `db:"recorded_at"`
	SessionID       string `db:"session_id"`
	UserID          string `db:"user_id"`
	Genus           string `db:"genus"`
	TotalCount      int    `db:"total_count"`
	CorrectCount    int    `db:"correct_count"`
	CumulativeScore int    `db:"cumulative_score"`
	LongestStreak   int    `db:"longest_streak"`
	DurationSecs    int    `db:"duration_secs"`
}

var sessionEventColumns = []string{
	"sequence", "recorded_at", "session_id", "user_id", "genus",
	"total_count", "correct_count", "cumulative_score", "longest_streak", "duration_secs",
}

func (r *eventRepo) AppendSessionSummary(ctx context.Context, data SessionSummaryData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(tableSessionEvents).
		Columns(sessionEventColumns...).
		Values(seqNum, toMillis(time.Now()), data.SessionID, data.UserID, data.Genus,
			data.TotalCount, data.CorrectCount, data.CumulativeScore, data.LongestStreak, data.DurationSecs).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error) {
	b := builder()
	sel := b.Select(sessionEventColumns...).
		From(b.Table(tableSessionEvents)).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	var rows []sessionEventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}

	records := make([]SessionSummaryRecord, len(rows))
	for i, e := range rows {
		records[i] = SessionSummaryRecord{
			SessionSummaryData: SessionSummaryData{
				SessionID:       e.SessionID,
				UserID:          e.UserID,
				Genus:           e.Genus,
				TotalCount:      e.TotalCount,
				CorrectCount:    e.CorrectCount,
				CumulativeScore: e.CumulativeScore,
				LongestStreak:   e.LongestStreak,
				DurationSecs:    e.DurationSecs,
			},
			Sequence:   e.Sequence,
			RecordedAt: fromMillis(e.RecordedAt),
		}
	}
	return records, nil
}

// applyQueryOpts adds the filters shared by all event tables.
func applyQueryOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("recorded_at", toMillis(opts.From)))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
