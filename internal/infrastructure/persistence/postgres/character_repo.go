// Package postgres implements the PostgreSQL persistence layer for LifeQuest Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHARACTER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CharacterRepository implements character.Repository for PostgreSQL.
type CharacterRepository struct {
	conn *Connection
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(conn *Connection) *CharacterRepository {
	return &CharacterRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Character CRUD
// ─────────────────────────────────────────────────────────────────────────────

// Create stores a character together with its stat rows in one transaction.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO characters (id, user_id, name, class, backstory, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.Exec(ctx, query,
			c.ID.String(),
			c.UserID.String(),
			c.Name,
			c.Class,
			c.Backstory,
			c.CreatedAt,
			c.UpdatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrCharacterAlreadyExists
			}
			return fmt.Errorf("failed to create character: %w", err)
		}

		statQuery := `
			INSERT INTO character_stats (
				id, character_id, category, total_xp, current_xp, current_level,
				level_title, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		for _, s := range c.Stats {
			_, err := tx.Exec(ctx, statQuery,
				s.ID.String(),
				s.CharacterID.String(),
				s.Category.String(),
				s.TotalXP.Int(),
				s.CurrentXP.Int(),
				s.CurrentLevel.Int(),
				s.LevelTitle,
				s.Version,
				s.CreatedAt,
				s.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create stat %s: %w", s.Category, err)
			}
		}

		return nil
	})
}

// GetByID returns a character with its stats.
func (r *CharacterRepository) GetByID(ctx context.Context, id shared.CharacterID) (*character.Character, error) {
	query := `
		SELECT id, user_id, name, class, backstory, created_at, updated_at
		FROM characters
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	c, err := r.scanCharacter(row)
	if err != nil {
		return nil, err
	}

	stats, err := r.ListStats(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Stats = stats

	return c, nil
}

// GetByUserID returns the character owned by a user.
func (r *CharacterRepository) GetByUserID(ctx context.Context, userID shared.UserID) (*character.Character, error) {
	query := `
		SELECT id, user_id, name, class, backstory, created_at, updated_at
		FROM characters
		WHERE user_id = $1
	`

	row := r.conn.QueryRow(ctx, query, userID.String())
	c, err := r.scanCharacter(row)
	if err != nil {
		return nil, err
	}

	stats, err := r.ListStats(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Stats = stats

	return c, nil
}

// ListCharacterIDs returns all character IDs. Used by background jobs.
func (r *CharacterRepository) ListCharacterIDs(ctx context.Context) ([]shared.CharacterID, error) {
	rows, err := r.conn.Query(ctx, "SELECT id FROM characters ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list character ids: %w", err)
	}
	defer rows.Close()

	var ids []shared.CharacterID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan character id: %w", err)
		}
		ids = append(ids, shared.CharacterID(id))
	}

	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Stat Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetStat returns a stat row by its ID.
func (r *CharacterRepository) GetStat(ctx context.Context, id shared.StatID) (*character.StatProgress, error) {
	query := `
		SELECT id, character_id, category, total_xp, current_xp, current_level,
			   level_title, version, created_at, updated_at
		FROM character_stats
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanStat(row)
}

// GetStatByCategory returns a character's stat row for the given category.
func (r *CharacterRepository) GetStatByCategory(ctx context.Context, characterID shared.CharacterID, category shared.StatCategory) (*character.StatProgress, error) {
	query := `
		SELECT id, character_id, category, total_xp, current_xp, current_level,
			   level_title, version, created_at, updated_at
		FROM character_stats
		WHERE character_id = $1 AND category = $2
	`

	row := r.conn.QueryRow(ctx, query, characterID.String(), category.String())
	return r.scanStat(row)
}

// ListStats returns all stat rows for a character.
func (r *CharacterRepository) ListStats(ctx context.Context, characterID shared.CharacterID) ([]*character.StatProgress, error) {
	query := `
		SELECT id, character_id, category, total_xp, current_xp, current_level,
			   level_title, version, created_at, updated_at
		FROM character_stats
		WHERE character_id = $1
		ORDER BY category
	`

	rows, err := r.conn.Query(ctx, query, characterID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	var stats []*character.StatProgress
	for rows.Next() {
		s, err := r.scanStatFromRows(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// UpdateStatProgress writes a stat's XP state with a version check. A row that
// was modified since the stat was read fails with ErrStatVersionConflict; the
// caller re-reads and recomputes. On success the in-memory version is bumped
// to match the stored row.
func (r *CharacterRepository) UpdateStatProgress(ctx context.Context, stat *character.StatProgress) error {
	query := `
		UPDATE character_stats SET
			total_xp = $1,
			current_xp = $2,
			current_level = $3,
			version = version + 1,
			updated_at = $4
		WHERE id = $5 AND version = $6
	`

	now := time.Now().UTC()
	result, err := r.conn.Exec(ctx, query,
		stat.TotalXP.Int(),
		stat.CurrentXP.Int(),
		stat.CurrentLevel.Int(),
		now,
		stat.ID.String(),
		stat.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update stat progress: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.statExists(ctx, stat.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrStatNotFound
		}
		return shared.ErrStatVersionConflict
	}

	stat.Version++
	stat.UpdatedAt = now
	return nil
}

// UpdateStatTitle writes a stat's level title. Titles are flavor, so this
// deliberately skips the version check: a late title write must never clobber
// or be blocked by a concurrent XP award.
func (r *CharacterRepository) UpdateStatTitle(ctx context.Context, id shared.StatID, level shared.Level, title string) error {
	query := `
		UPDATE character_stats SET
			level_title = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, title, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update stat title: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStatNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// XP History
// ─────────────────────────────────────────────────────────────────────────────

// RecordXPChange appends an audit row for an applied award.
func (r *CharacterRepository) RecordXPChange(ctx context.Context, statID shared.StatID, oldXP, newXP, delta shared.XP, source, sourceID string) error {
	query := `
		INSERT INTO xp_history (stat_id, old_xp, new_xp, delta, source, source_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var srcID *string
	if sourceID != "" {
		srcID = &sourceID
	}

	_, err := r.conn.Exec(ctx, query,
		statID.String(),
		oldXP.Int(),
		newXP.Int(),
		delta.Int(),
		source,
		srcID,
	)
	if err != nil {
		return fmt.Errorf("failed to record xp change: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *CharacterRepository) statExists(ctx context.Context, id shared.StatID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM character_stats WHERE id = $1)",
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check stat existence: %w", err)
	}
	return exists, nil
}

// scanCharacter scans a single character from a row (stats loaded separately).
func (r *CharacterRepository) scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	var id, userID string

	err := row.Scan(
		&id,
		&userID,
		&c.Name,
		&c.Class,
		&c.Backstory,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan character: %w", err)
	}

	c.ID = shared.CharacterID(id)
	c.UserID = shared.UserID(userID)

	return &c, nil
}

func (r *CharacterRepository) scanStat(row pgx.Row) (*character.StatProgress, error) {
	var s character.StatProgress
	var id, characterID, category string
	var totalXP, currentXP, currentLevel int

	err := row.Scan(
		&id,
		&characterID,
		&category,
		&totalXP,
		&currentXP,
		&currentLevel,
		&s.LevelTitle,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrStatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stat: %w", err)
	}

	s.ID = shared.StatID(id)
	s.CharacterID = shared.CharacterID(characterID)
	s.Category = shared.StatCategory(category)
	s.TotalXP = shared.XP(totalXP)
	s.CurrentXP = shared.XP(currentXP)
	s.CurrentLevel = shared.Level(currentLevel)

	return &s, nil
}

func (r *CharacterRepository) scanStatFromRows(rows pgx.Rows) (*character.StatProgress, error) {
	var s character.StatProgress
	var id, characterID, category string
	var totalXP, currentXP, currentLevel int

	err := rows.Scan(
		&id,
		&characterID,
		&category,
		&totalXP,
		&currentXP,
		&currentLevel,
		&s.LevelTitle,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stat: %w", err)
	}

	s.ID = shared.StatID(id)
	s.CharacterID = shared.CharacterID(characterID)
	s.Category = shared.StatCategory(category)
	s.TotalXP = shared.XP(totalXP)
	s.CurrentXP = shared.XP(currentXP)
	s.CurrentLevel = shared.Level(currentLevel)

	return &s, nil
}
