package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type awardEventRow struct {
	Sequence      int64  `db:"sequence"`
	RecordedAt    int64  `db:"recorded_at"`
	UserID        string `db:"user_id"`
	AchievementID string `db:"achievement_id"`
	Category      string `db:"category"`
	Rarity        string `db:"rarity"`
	Points        int    `db:"points"`
	EventID       string `db:"event_id"`
	Reason        string `db:"reason"`
}

var awardEventColumns = []string{
	"sequence", "recorded_at", "user_id", "achievement_id",
	"category", "rarity", "points", "event_id", "reason",
}

func (r *eventRepo) AppendAwardEvent(ctx context.Context, data AwardEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(tableAwardEvents).
		Columns(awardEventColumns...).
		Values(seqNum, toMillis(time.Now()), data.UserID, data.AchievementID,
			data.Category, data.Rarity, data.Points, data.EventID, data.Reason).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save award event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAwardEvents(ctx context.Context, opts QueryOpts) ([]AwardEventRecord, error) {
	b := builder()
	sel := b.Select(awardEventColumns...).
		From(b.Table(tableAwardEvents)).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	var rows []awardEventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query award events: %w", err)
	}

	records := make([]AwardEventRecord, len(rows))
	for i, e := range rows {
		records[i] = e.record()
	}
	return records, nil
}

func (r *eventRepo) AwardCounts(ctx context.Context, userID string) (map[string]int, int, error) {
	events, err := r.QueryAwardEvents(ctx, QueryOpts{UserID: userID})
	if err != nil {
		return nil, 0, fmt.Errorf("query award counts: %w", err)
	}

	byCategory := make(map[string]int)
	for _, e := range events {
		byCategory[e.Category]++
	}
	return byCategory, len(events), nil
}

func (e awardEventRow) record() AwardEventRecord {
	return AwardEventRecord{
		AwardEventData: AwardEventData{
			UserID:        e.UserID,
			AchievementID: e.AchievementID,
			Category:      e.Category,
			Rarity:        e.Rarity,
			Points:        e.Points,
			EventID:       e.EventID,
			Reason:        e.Reason,
		},
		Sequence:   e.Sequence,
		RecordedAt: fromMillis(e.RecordedAt),
	}
}
