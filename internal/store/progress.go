package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// progressRepo implements ProgressRepo on SQLite.
type progressRepo struct {
	db *sqlx.DB
}

type progressRow struct {
	UserID        string        `db:"user_id"`
	AchievementID string        `db:"achievement_id"`
	Progress      int           `db:"progress"`
	EarnedAt      sql.NullInt64 `db:"earned_at"`
	UpdatedAt     int64         `db:"updated_at"`
}

func (r progressRow) record() ProgressRecord {
	rec := ProgressRecord{
		UserID:        r.UserID,
		AchievementID: r.AchievementID,
		Progress:      r.Progress,
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
	if r.EarnedAt.Valid {
		t := fromMillis(r.EarnedAt.Int64)
		rec.EarnedAt = &t
	}
	return rec
}

var progressColumns = []string{"user_id", "achievement_id", "progress", "earned_at", "updated_at"}

// column renders table.column for the builder's dialect.
func column(b *entsql.Builder, table, name string) *entsql.Builder {
	return b.Ident(table).WriteByte('.').Ident(name)
}

// upsertProgress inserts a progress row, or adds to an existing row that has
// not been earned yet. When the existing row is earned the update WHERE turns
// the statement into a no-op and RETURNING yields no row. revision is 0 only
// for a freshly inserted row.
func upsertProgress(u ProgressUpdate, earnedAt sql.NullInt64, now int64) (string, []any) {
	return builder().Insert(tableProgress).
		Columns("user_id", "achievement_id", "progress", "earned_at", "revision", "created_at", "updated_at").
		Values(u.UserID, u.AchievementID, u.Delta, earnedAt, 0, now, now).
		OnConflict(
			entsql.ConflictColumns("user_id", "achievement_id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.Set("progress", entsql.ExprFunc(func(b *entsql.Builder) {
					column(b, tableProgress, "progress").WriteString(" + ")
					column(b, "excluded", "progress")
				}))
				s.Set("earned_at", entsql.ExprFunc(func(b *entsql.Builder) {
					b.WriteString("CASE WHEN ")
					column(b, tableProgress, "progress").WriteString(" + ")
					column(b, "excluded", "progress").WriteString(" >= ").Arg(u.Target)
					b.WriteString(" THEN ")
					column(b, "excluded", "updated_at").WriteString(" ELSE NULL END")
				}))
				s.Set("revision", entsql.ExprFunc(func(b *entsql.Builder) {
					column(b, tableProgress, "revision").WriteString(" + 1")
				}))
				s.SetExcluded("updated_at")
			}),
			entsql.UpdateWhere(entsql.IsNull("earned_at")),
		).
		Returning("user_id", "achievement_id", "progress", "earned_at", "updated_at", "revision").
		Query()
}

func (r *progressRepo) GetProgress(ctx context.Context, userID, achievementID string) (*ProgressRecord, error) {
	return getProgress(ctx, r.db, userID, achievementID)
}

func (r *progressRepo) ListProgress(ctx context.Context, userID string) ([]ProgressRecord, error) {
	b := builder()
	query, args := b.Select(progressColumns...).
		From(b.Table(tableProgress)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("achievement_id").
		Query()

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	records := make([]ProgressRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

func (r *progressRepo) ApplyProgress(ctx context.Context, u ProgressUpdate) (ApplyResult, error) {
	if u.Target <= 0 {
		u.Target = 1
	}
	if u.At.IsZero() {
		u.At = time.Now()
	}
	now := toMillis(u.At)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if u.EventID != "" {
		query, args := builder().Insert(tableEventLog).
			Columns("user_id", "achievement_id", "event_id", "applied_at").
			Values(u.UserID, u.AchievementID, u.EventID, toMillis(time.Now())).
			OnConflict(entsql.DoNothing()).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("record event %s: %w", u.EventID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return ApplyResult{}, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return r.finishUnchanged(ctx, tx, u, OutcomeDuplicate)
		}
	}

	var earnedAt sql.NullInt64
	if u.Delta >= u.Target {
		earnedAt = sql.NullInt64{Int64: now, Valid: true}
	}

	var (
		row      progressRow
		revision int64
	)
	query, args := upsertProgress(u, earnedAt, now)
	err = tx.QueryRowxContext(ctx, query, args...).Scan(&row.UserID, &row.AchievementID, &row.Progress, &row.EarnedAt, &row.UpdatedAt, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return r.finishUnchanged(ctx, tx, u, OutcomeAlreadyEarned)
	}
	if err != nil {
		return ApplyResult{}, fmt.Errorf("upsert progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ApplyResult{}, fmt.Errorf("commit: %w", err)
	}

	outcome := OutcomeUpdated
	if revision == 0 {
		outcome = OutcomeCreated
	}
	rec := row.record()
	return ApplyResult{Outcome: outcome, Progress: rec, NewlyEarned: rec.Earned()}, nil
}

// finishUnchanged reads the current row and commits the transaction for an
// update that changed nothing.
func (r *progressRepo) finishUnchanged(ctx context.Context, tx *sqlx.Tx, u ProgressUpdate, outcome AwardOutcome) (ApplyResult, error) {
	rec, err := getProgress(ctx, tx, u.UserID, u.AchievementID)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ApplyResult{}, fmt.Errorf("commit: %w", err)
	}

	res := ApplyResult{Outcome: outcome}
	if rec != nil {
		res.Progress = *rec
	} else {
		res.Progress = ProgressRecord{UserID: u.UserID, AchievementID: u.AchievementID}
	}
	return res, nil
}

func (r *progressRepo) ResetUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{tableEventLog, tableProgress} {
		query, args := builder().Delete(table).Where(entsql.EQ("user_id", userID)).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// PruneEventLog deletes dedup rows applied before the cutoff. Rows of
// achievements that are not earned yet are kept: they stop a replayed event
// from adding progress twice.
func (r *progressRepo) PruneEventLog(ctx context.Context, before time.Time) (int64, error) {
	b := builder()
	logs, progress := b.Table(tableEventLog), b.Table(tableProgress)
	earned := b.SelectExpr(entsql.Raw("1")).
		From(progress).
		Where(entsql.And(
			entsql.ColumnsEQ(progress.C("user_id"), logs.C("user_id")),
			entsql.ColumnsEQ(progress.C("achievement_id"), logs.C("achievement_id")),
			entsql.NotNull(progress.C("earned_at")),
		))
	query, args := b.Delete(tableEventLog).
		Where(entsql.And(
			entsql.LT("applied_at", toMillis(before)),
			entsql.Exists(earned),
		)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune event log: %w", err)
	}
	return res.RowsAffected()
}

func getProgress(ctx context.Context, q sqlx.QueryerContext, userID, achievementID string) (*ProgressRecord, error) {
	b := builder()
	query, args := b.Select(progressColumns...).
		From(b.Table(tableProgress)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("achievement_id", achievementID),
		)).
		Query()

	var row progressRow
	err := sqlx.GetContext(ctx, q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	rec := row.record()
	return &rec, nil
}
