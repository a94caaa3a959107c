package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/lib/pq"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(exec SQLExecutor) MatchRepository {
	return &postgresMatchRepository{exec: exec}
}

const matchColumns = `
	id, fixture_id, bracket_match_uid, round, match_number,
	home_participant_id, away_participant_id, home_partner_id, away_partner_id,
	home_score, away_score, sets_json, winner_participant_id, status,
	next_match_id, previous_match_ids, is_third_place_match, is_bye, version, updated_at`

var matchConstraintErrors = map[string]error{
	"matches_fixture_id_fkey":            ErrFixtureNotFound,
	"matches_home_participant_id_fkey":   ErrParticipantNotFound,
	"matches_away_participant_id_fkey":   ErrParticipantNotFound,
	"matches_home_partner_id_fkey":       ErrParticipantNotFound,
	"matches_away_partner_id_fkey":       ErrParticipantNotFound,
	"matches_winner_participant_id_fkey": ErrParticipantNotFound,
	"matches_next_match_id_fkey":         ErrMatchNotFound,
	"matches_fixture_uid_key":            ErrMatchUIDConflict,
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	setsJSON, err := encodeSets(match.Sets)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches
			(fixture_id, bracket_match_uid, round, match_number,
			 home_participant_id, away_participant_id, home_partner_id, away_partner_id,
			 home_score, away_score, sets_json, winner_participant_id, status,
			 is_third_place_match, is_bye, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1)
		RETURNING id, version, updated_at`

	err = r.exec.QueryRowContext(ctx, query,
		match.FixtureID,
		match.UID,
		match.Round,
		match.MatchNumber,
		match.HomeParticipantID,
		match.AwayParticipantID,
		match.HomePartnerID,
		match.AwayPartnerID,
		match.HomeScore,
		match.AwayScore,
		setsJSON,
		match.WinnerID,
		match.Status,
		match.IsThirdPlaceMatch,
		match.IsBye,
	).Scan(&match.ID, &match.Version, &match.UpdatedAt)
	if err != nil {
		return mapConstraintError(err, matchConstraintErrors)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByFixture(ctx context.Context, fixtureID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE fixture_id = $1
		ORDER BY round ASC, is_third_place_match ASC, match_number ASC, id ASC`

	rows, err := r.exec.QueryContext(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for fixture %d: %w", fixtureID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	setsJSON, err := encodeSets(match.Sets)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET home_participant_id = $1, away_participant_id = $2, home_partner_id = $3, away_partner_id = $4,
		    home_score = $5, away_score = $6, sets_json = $7, winner_participant_id = $8, status = $9,
		    next_match_id = $10, previous_match_ids = $11, is_bye = $12,
		    version = version + 1, updated_at = NOW()
		WHERE id = $13 AND version = $14
		RETURNING version, updated_at`

	err = r.exec.QueryRowContext(ctx, query,
		match.HomeParticipantID,
		match.AwayParticipantID,
		match.HomePartnerID,
		match.AwayPartnerID,
		match.HomeScore,
		match.AwayScore,
		setsJSON,
		match.WinnerID,
		match.Status,
		match.NextMatchID,
		pq.Array(toInt64s(match.PreviousMatchIDs)),
		match.IsBye,
		match.ID,
		match.Version,
	).Scan(&match.Version, &match.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return mapConstraintError(err, matchConstraintErrors)
	}

	var exists bool
	if existsErr := r.exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, match.ID).Scan(&exists); existsErr != nil {
		return fmt.Errorf("failed to check match %d: %w", match.ID, existsErr)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return fmt.Errorf("%w: match %d version %d", ErrMatchVersionConflict, match.ID, match.Version)
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, matchID int, nextMatchID *int, previousMatchIDs []int) error {
	query := `UPDATE matches SET next_match_id = $1, previous_match_ids = $2 WHERE id = $3`
	result, err := r.exec.ExecContext(ctx, query, nextMatchID, pq.Array(toInt64s(previousMatchIDs)), matchID)
	if err != nil {
		return fmt.Errorf("UpdateLinks: failed for match %d: %w", matchID, mapConstraintError(err, matchConstraintErrors))
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByFixture(ctx context.Context, fixtureID int) error {
	// сначала рвём ссылки, чтобы внешние ключи не мешали удалению
	if _, err := r.exec.ExecContext(ctx, `UPDATE matches SET next_match_id = NULL WHERE fixture_id = $1`, fixtureID); err != nil {
		return fmt.Errorf("failed to unlink matches of fixture %d: %w", fixtureID, err)
	}
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE fixture_id = $1`, fixtureID); err != nil {
		return fmt.Errorf("failed to delete matches of fixture %d: %w", fixtureID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		match    models.Match
		setsJSON sql.NullString
		previous []int64
	)
	err := row.Scan(
		&match.ID,
		&match.FixtureID,
		&match.UID,
		&match.Round,
		&match.MatchNumber,
		&match.HomeParticipantID,
		&match.AwayParticipantID,
		&match.HomePartnerID,
		&match.AwayPartnerID,
		&match.HomeScore,
		&match.AwayScore,
		&setsJSON,
		&match.WinnerID,
		&match.Status,
		&match.NextMatchID,
		pq.Array(&previous),
		&match.IsThirdPlaceMatch,
		&match.IsBye,
		&match.Version,
		&match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.PreviousMatchIDs = fromInt64s(previous)
	if setsJSON.Valid && setsJSON.String != "" {
		if err := json.Unmarshal([]byte(setsJSON.String), &match.Sets); err != nil {
			return nil, fmt.Errorf("invalid sets_json for match %d: %w", match.ID, err)
		}
	}
	return &match, nil
}

func encodeSets(sets []models.SetScore) (*string, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sets: %w", err)
	}
	s := string(raw)
	return &s, nil
}
