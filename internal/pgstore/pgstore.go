// Package pgstore keeps achievement progress in PostgreSQL for deployments
// where several processes award achievements against one database.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connect creates a connection pool to PostgreSQL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate runs the embedded SQL migrations against the database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := migrations.ReadFile("migrations/001_initial.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

// ProgressRepo implements store.ProgressRepo on PostgreSQL.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

var _ store.ProgressRepo = (*ProgressRepo)(nil)

// NewProgressRepo returns a repository backed by pool.
func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

const selectProgressSQL = `SELECT user_id, achievement_id, progress, earned_at, updated_at
FROM achievement_progress`

const upsertProgressSQL = `INSERT INTO achievement_progress
    (user_id, achievement_id, progress, earned_at, revision, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, $5)
ON CONFLICT (user_id, achievement_id) DO UPDATE SET
    progress   = achievement_progress.progress + excluded.progress,
    earned_at  = CASE WHEN achievement_progress.progress + excluded.progress >= $6 THEN excluded.updated_at ELSE NULL END,
    revision   = achievement_progress.revision + 1,
    updated_at = excluded.updated_at
WHERE achievement_progress.earned_at IS NULL
RETURNING user_id, achievement_id, progress, earned_at, updated_at, revision`

func scanProgress(row pgx.Row, extra ...any) (store.ProgressRecord, error) {
	var rec store.ProgressRecord
	dest := append([]any{&rec.UserID, &rec.AchievementID, &rec.Progress, &rec.EarnedAt, &rec.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	return rec, err
}

func (r *ProgressRepo) GetProgress(ctx context.Context, userID, achievementID string) (*store.ProgressRecord, error) {
	return getProgress(ctx, r.pool, userID, achievementID)
}

func (r *ProgressRepo) ListProgress(ctx context.Context, userID string) ([]store.ProgressRecord, error) {
	rows, err := r.pool.Query(ctx, selectProgressSQL+` WHERE user_id = $1 ORDER BY achievement_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var records []store.ProgressRecord
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ProgressRepo) ApplyProgress(ctx context.Context, u store.ProgressUpdate) (store.ApplyResult, error) {
	if u.Target <= 0 {
		u.Target = 1
	}
	if u.At.IsZero() {
		u.At = time.Now()
	}
	at := u.At.UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return store.ApplyResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if u.EventID != "" {
		tag, err := tx.Exec(ctx, `INSERT INTO achievement_event_log (user_id, achievement_id, event_id, applied_at)
VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`, u.UserID, u.AchievementID, u.EventID, time.Now().UTC())
		if err != nil {
			return store.ApplyResult{}, fmt.Errorf("record event %s: %w", u.EventID, err)
		}
		if tag.RowsAffected() == 0 {
			return finishUnchanged(ctx, tx, u, store.OutcomeDuplicate)
		}
	}

	var earnedAt *time.Time
	if u.Delta >= u.Target {
		earnedAt = &at
	}

	var revision int64
	rec, err := scanProgress(
		tx.QueryRow(ctx, upsertProgressSQL, u.UserID, u.AchievementID, u.Delta, earnedAt, at, u.Target),
		&revision,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return finishUnchanged(ctx, tx, u, store.OutcomeAlreadyEarned)
	}
	if err != nil {
		return store.ApplyResult{}, fmt.Errorf("upsert progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.ApplyResult{}, fmt.Errorf("commit: %w", err)
	}

	outcome := store.OutcomeUpdated
	if revision == 0 {
		outcome = store.OutcomeCreated
	}
	return store.ApplyResult{Outcome: outcome, Progress: rec, NewlyEarned: rec.Earned()}, nil
}

func finishUnchanged(ctx context.Context, tx pgx.Tx, u store.ProgressUpdate, outcome store.AwardOutcome) (store.ApplyResult, error) {
	rec, err := getProgress(ctx, tx, u.UserID, u.AchievementID)
	if err != nil {
		return store.ApplyResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return store.ApplyResult{}, fmt.Errorf("commit: %w", err)
	}

	res := store.ApplyResult{Outcome: outcome}
	if rec != nil {
		res.Progress = *rec
	} else {
		res.Progress = store.ProgressRecord{UserID: u.UserID, AchievementID: u.AchievementID}
	}
	return res, nil
}

func (r *ProgressRepo) ResetUser(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"achievement_event_log", "achievement_progress"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}

// pruneEventLogSQL deletes dedup rows applied before $1, keeping every row
// whose achievement is not earned yet so a replay cannot add progress twice.
const pruneEventLogSQL = `DELETE FROM achievement_event_log l
WHERE l.applied_at < $1
  AND EXISTS (
    SELECT 1 FROM achievement_progress p
    WHERE p.user_id = l.user_id
      AND p.achievement_id = l.achievement_id
      AND p.earned_at IS NOT NULL)`

func (r *ProgressRepo) PruneEventLog(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, pruneEventLogSQL, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune event log: %w", err)
	}
	return tag.RowsAffected(), nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getProgress(ctx context.Context, q querier, userID, achievementID string) (*store.ProgressRecord, error) {
	rec, err := scanProgress(q.QueryRow(ctx,
		selectProgressSQL+` WHERE user_id = $1 AND achievement_id = $2`, userID, achievementID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &rec, nil
}
