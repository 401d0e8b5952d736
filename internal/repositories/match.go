package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

const matchColumns = `
	id, sequence, source_platform, source_id, target_platform, target_id, target_url,
	method, score, success, error_kind, error_message, source_title, source_artist,
	created_at, updated_at, deleted_at`

// MatchRepository implements models.Repository[*models.MatchRecord] for resolution history.
//
// Records are append-only in practice; Update exists for the Repository contract.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match record into the database with generated ID and sequence
func (r *MatchRepository) Create(match *models.MatchRecord) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "matches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	match.SetID(id)
	match.SetSequence(sequence)

	res := match.Result()
	query := `
		INSERT INTO matches (
			id, sequence, source_platform, source_id, target_platform, target_id, target_url,
			method, score, success, error_kind, error_message, source_title, source_artist,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		res.SourcePlatform.String(),
		res.SourceID,
		res.TargetPlatform.String(),
		res.TargetID,
		res.TargetURL,
		res.Method.String(),
		res.Score,
		res.Success,
		match.ErrorKind(),
		match.ErrorMessage(),
		match.SourceTitle(),
		match.SourceArtist(),
		match.CreatedAt(),
		match.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// Get retrieves a match record by ID, excluding soft-deleted records
func (r *MatchRepository) Get(id string) (*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ? AND deleted_at IS NULL`
	return scanMatch(r.db.QueryRow(query, id))
}

// Latest returns the most recent record for the directed pair in key.
func (r *MatchRepository) Latest(key models.CacheKey) (*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE source_platform = ? AND source_id = ? AND target_platform = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1`
	return scanMatch(r.db.QueryRow(query, key.SourcePlatform.String(), key.SourceID, key.TargetPlatform.String()))
}

// Update modifies an existing match record in the database
func (r *MatchRepository) Update(match *models.MatchRecord) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	match.SetUpdatedAt(now)

	res := match.Result()
	query := `
		UPDATE matches
		SET target_id = ?, target_url = ?, method = ?, score = ?, success = ?,
			error_kind = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		res.TargetID,
		res.TargetURL,
		res.Method.String(),
		res.Score,
		res.Success,
		match.ErrorKind(),
		match.ErrorMessage(),
		now,
		match.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	return expectAffected(result, "match", match.ID())
}

// Delete soft-deletes a match record by ID
func (r *MatchRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE matches SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return expectAffected(result, "match", id)
}

// List retrieves match records newest first, excluding soft-deleted records.
//
// Supported criteria:
//   - "source_platform" (string): platform name as stored, e.g. "spotify"
//   - "source_id" (string)
//   - "success" (bool)
//   - "limit" (int): values <= 0 mean no limit
func (r *MatchRepository) List(criteria map[string]any) ([]*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE deleted_at IS NULL`
	args := []any{}

	if platform, ok := criteria["source_platform"].(string); ok && platform != "" {
		query += " AND source_platform = ?"
		args = append(args, platform)
	}

	if sourceID, ok := criteria["source_id"].(string); ok && sourceID != "" {
		query += " AND source_id = ?"
		args = append(args, sourceID)
	}

	if success, ok := criteria["success"].(bool); ok {
		query += " AND success = ?"
		args = append(args, success)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.MatchRecord
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

func scanMatch(s scanner) (*models.MatchRecord, error) {
	var (
		id             string
		sequence       int
		sourcePlatform string
		targetPlatform string
		method         string
		errorKind      string
		errorMessage   string
		sourceTitle    string
		sourceArtist   string
		res            models.MatchResult
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := s.Scan(
		&id, &sequence, &sourcePlatform, &res.SourceID, &targetPlatform, &res.TargetID, &res.TargetURL,
		&method, &res.Score, &res.Success, &errorKind, &errorMessage, &sourceTitle, &sourceArtist,
		&createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	if err := res.SourcePlatform.UnmarshalText([]byte(sourcePlatform)); err != nil {
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	if err := res.TargetPlatform.UnmarshalText([]byte(targetPlatform)); err != nil {
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	if err := res.Method.UnmarshalText([]byte(method)); err != nil {
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}

	if errorKind != "" {
		res.Error = &models.MatchError{Kind: models.ErrorKind(errorKind), Message: errorMessage}
	}
	if sourceTitle != "" || sourceArtist != "" {
		res.Source = &models.TrackMetadata{
			Title:      sourceTitle,
			Artist:     sourceArtist,
			Platform:   res.SourcePlatform,
			PlatformID: res.SourceID,
		}
	}

	match := models.NewMatchRecord(sequence, res)
	match.SetID(id)
	match.SetCreatedAt(createdAt)
	match.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		match.SetDeletedAt(&deletedAt.Time)
	}

	return match, nil
}

// HistoryAdapter implements tasks.HistoryRecorder using MatchRepository.
type HistoryAdapter struct {
	repo *MatchRepository
}

// NewHistoryAdapter creates a new HistoryAdapter with the given repository
func NewHistoryAdapter(repo *MatchRepository) *HistoryAdapter {
	return &HistoryAdapter{repo: repo}
}

// RecordMatch appends result to the history table.
func (a *HistoryAdapter) RecordMatch(result models.MatchResult) error {
	if err := a.repo.Create(models.NewMatchRecord(0, result)); err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}
