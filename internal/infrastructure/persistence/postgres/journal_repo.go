// Package postgres implements the PostgreSQL persistence layer for LifeQuest Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// JournalRepository implements journal.Repository for PostgreSQL.
type JournalRepository struct {
	conn *Connection
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(conn *Connection) *JournalRepository {
	return &JournalRepository{conn: conn}
}

// Create stores an entry, including any attached weather and analysis.
func (r *JournalRepository) Create(ctx context.Context, e *journal.Entry) error {
	query := `
		INSERT INTO journal_entries (id, character_id, body, mood, weather, analysis, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	weatherJSON, err := marshalOptional(e.Weather)
	if err != nil {
		return fmt.Errorf("failed to marshal weather: %w", err)
	}
	analysisJSON, err := marshalOptional(e.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		e.ID.String(),
		e.CharacterID.String(),
		e.Body,
		string(e.Mood),
		weatherJSON,
		analysisJSON,
		e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByID returns an entry by ID.
func (r *JournalRepository) GetByID(ctx context.Context, id shared.EntryID) (*journal.Entry, error) {
	query := `
		SELECT id, character_id, body, mood, weather, analysis, recorded_at
		FROM journal_entries
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanEntry(row)
}

// ListByCharacter returns a character's entries, newest first.
func (r *JournalRepository) ListByCharacter(ctx context.Context, characterID shared.CharacterID, limit int) ([]*journal.Entry, error) {
	query := `
		SELECT id, character_id, body, mood, weather, analysis, recorded_at
		FROM journal_entries
		WHERE character_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, characterID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		e, err := r.scanEntryFromRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// marshalOptional marshals a pointer, mapping nil to SQL NULL.
func marshalOptional(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case *journal.WeatherSnapshot:
		if val == nil {
			return nil, nil
		}
	case *journal.Analysis:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func (r *JournalRepository) scanEntry(row pgx.Row) (*journal.Entry, error) {
	var e journal.Entry
	var id, characterID, mood string
	var weatherJSON, analysisJSON []byte

	err := row.Scan(
		&id,
		&characterID,
		&e.Body,
		&mood,
		&weatherJSON,
		&analysisJSON,
		&e.RecordedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	e.ID = shared.EntryID(id)
	e.CharacterID = shared.CharacterID(characterID)
	e.Mood = journal.Mood(mood)
	e.Weather = unmarshalWeather(weatherJSON)
	e.Analysis = unmarshalAnalysis(analysisJSON)

	return &e, nil
}

func (r *JournalRepository) scanEntryFromRows(rows pgx.Rows) (*journal.Entry, error) {
	var e journal.Entry
	var id, characterID, mood string
	var weatherJSON, analysisJSON []byte

	err := rows.Scan(
		&id,
		&characterID,
		&e.Body,
		&mood,
		&weatherJSON,
		&analysisJSON,
		&e.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	e.ID = shared.EntryID(id)
	e.CharacterID = shared.CharacterID(characterID)
	e.Mood = journal.Mood(mood)
	e.Weather = unmarshalWeather(weatherJSON)
	e.Analysis = unmarshalAnalysis(analysisJSON)

	return &e, nil
}

func unmarshalWeather(data []byte) *journal.WeatherSnapshot {
	if len(data) == 0 {
		return nil
	}
	var w journal.WeatherSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return nil
	}
	return &w
}

func unmarshalAnalysis(data []byte) *journal.Analysis {
	if len(data) == 0 {
		return nil
	}
	var a journal.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil
	}
	return &a
}
