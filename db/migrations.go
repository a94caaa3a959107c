package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order, each at most once. Never edit an applied step; append a new one.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id       SERIAL PRIMARY KEY,
		event_id INT  NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		name     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id   SERIAL PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('player', 'team')),
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_memberships (
		participant_id INT  NOT NULL REFERENCES participants (id) ON DELETE CASCADE,
		team_id        INT  NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
		event_id       INT  NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		role           TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (participant_id, event_id)
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id            SERIAL PRIMARY KEY,
		event_id      INT  NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		points_first  INT  NOT NULL DEFAULT 0,
		points_second INT  NOT NULL DEFAULT 0,
		points_third  INT  NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id                    SERIAL PRIMARY KEY,
		event_id              INT         NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		activity_id           INT         NOT NULL REFERENCES activities (id) ON DELETE CASCADE,
		name                  TEXT        NOT NULL,
		format                TEXT        NOT NULL CHECK (format IN ('knockout', 'roundrobin')),
		participant_type      TEXT        NOT NULL CHECK (participant_type IN ('player', 'team')),
		is_doubles            BOOLEAN     NOT NULL DEFAULT FALSE,
		settings_json         TEXT,
		first_participant_id  INT REFERENCES participants (id),
		second_participant_id INT REFERENCES participants (id),
		third_participant_id  INT REFERENCES participants (id),
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS fixture_participants (
		fixture_id     INT NOT NULL REFERENCES fixtures (id) ON DELETE CASCADE,
		participant_id INT NOT NULL REFERENCES participants (id),
		seed           INT NOT NULL,
		PRIMARY KEY (fixture_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                    SERIAL PRIMARY KEY,
		fixture_id            INT         NOT NULL REFERENCES fixtures (id) ON DELETE CASCADE,
		bracket_match_uid     TEXT        NOT NULL,
		round                 INT         NOT NULL,
		match_number          INT         NOT NULL,
		home_participant_id   INT REFERENCES participants (id),
		away_participant_id   INT REFERENCES participants (id),
		home_partner_id       INT REFERENCES participants (id),
		away_partner_id       INT REFERENCES participants (id),
		home_score            INT,
		away_score            INT,
		sets_json             TEXT,
		winner_participant_id INT REFERENCES participants (id),
		status                TEXT        NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'in_progress', 'completed', 'walkover', 'postponed', 'cancelled')),
		next_match_id         INT REFERENCES matches (id),
		previous_match_ids    INT[]       NOT NULL DEFAULT '{}',
		is_third_place_match  BOOLEAN     NOT NULL DEFAULT FALSE,
		is_bye                BOOLEAN     NOT NULL DEFAULT FALSE,
		version               INT         NOT NULL DEFAULT 1,
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT matches_fixture_uid_key UNIQUE (fixture_id, bracket_match_uid)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_fixture_id_idx ON matches (fixture_id)`,
	`CREATE INDEX IF NOT EXISTS fixtures_event_id_idx ON fixtures (event_id)`,
	`ALTER TABLE participants ADD COLUMN IF NOT EXISTS team_id INT
		CONSTRAINT participants_team_id_fkey REFERENCES teams (id) ON DELETE CASCADE`,
}

// Migrate brings the schema up to date inside one transaction.
func Migrate(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	// Параллельные экземпляры ждут друг друга.
	if _, err = tx.ExecContext(ctx, `LOCK TABLE schema_migrations IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock schema_migrations: %w", err)
	}

	var current int
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	for i := current; i < len(migrations); i++ {
		if _, err = tx.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}
	return nil
}

// SchemaVersion is the version Migrate brings a database to.
func SchemaVersion() int {
	return len(migrations)
}
