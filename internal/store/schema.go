package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	tableProgress       = "achievement_progress"
	tableEventLog       = "achievement_event_log"
	tableSpecimens      = "specimens"
	tableSessionEvents  = "session_events"
	tableAwardEvents    = "award_events"
	tableGlobalSequence = "global_sequence"
)

// Timestamps are stored as Unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS achievement_progress (
		user_id        TEXT    NOT NULL,
		achievement_id TEXT    NOT NULL,
		progress       INTEGER NOT NULL DEFAULT 0,
		earned_at      INTEGER,
		revision       INTEGER NOT NULL DEFAULT 0,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL,
		PRIMARY KEY (user_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS achievement_event_log (
		user_id        TEXT    NOT NULL,
		achievement_id TEXT    NOT NULL,
		event_id       TEXT    NOT NULL,
		applied_at     INTEGER NOT NULL,
		PRIMARY KEY (user_id, achievement_id, event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS achievement_event_log_applied_at ON achievement_event_log (applied_at)`,
	`CREATE TABLE IF NOT EXISTS specimens (
		id            TEXT    PRIMARY KEY,
		species_name  TEXT    NOT NULL,
		genus         TEXT    NOT NULL,
		family        TEXT    NOT NULL,
		common_name   TEXT    NOT NULL DEFAULT '',
		dna_sequenced INTEGER NOT NULL DEFAULT 0,
		quality_score REAL
	)`,
	`CREATE INDEX IF NOT EXISTS specimens_genus ON specimens (genus)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		sequence         INTEGER PRIMARY KEY,
		recorded_at      INTEGER NOT NULL,
		session_id       TEXT    NOT NULL,
		user_id          TEXT    NOT NULL,
		genus            TEXT    NOT NULL DEFAULT '',
		total_count      INTEGER NOT NULL,
		correct_count    INTEGER NOT NULL,
		cumulative_score INTEGER NOT NULL,
		longest_streak   INTEGER NOT NULL,
		duration_secs    INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_user ON session_events (user_id)`,
	`CREATE TABLE IF NOT EXISTS award_events (
		sequence       INTEGER PRIMARY KEY,
		recorded_at    INTEGER NOT NULL,
		user_id        TEXT    NOT NULL,
		achievement_id TEXT    NOT NULL,
		category       TEXT    NOT NULL,
		rarity         TEXT    NOT NULL,
		points         INTEGER NOT NULL,
		event_id       TEXT    NOT NULL,
		reason         TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS award_events_user ON award_events (user_id)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
