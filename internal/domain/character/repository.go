package character

import (
	"context"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Repository persists characters and their stat rows.
//
// UpdateStatProgress must serialize concurrent read-modify-write cycles on the
// same stat row: it compares the stat's Version against the stored row and
// fails with shared.ErrStatVersionConflict when another writer got there
// first. Callers re-read and recompute on conflict.
type Repository interface {
	// Create stores a new character together with its initial stat rows.
	Create(ctx context.Context, c *Character) error

	// GetByID returns a character with all stats loaded.
	GetByID(ctx context.Context, id shared.CharacterID) (*Character, error)

	// GetByUserID returns the character owned by a user.
	GetByUserID(ctx context.Context, userID shared.UserID) (*Character, error)

	// GetStat returns a single stat row.
	GetStat(ctx context.Context, id shared.StatID) (*StatProgress, error)

	// GetStatByCategory returns a character's stat row for a category.
	GetStatByCategory(ctx context.Context, characterID shared.CharacterID, category shared.StatCategory) (*StatProgress, error)

	// ListStats returns all stat rows of a character, in category order.
	ListStats(ctx context.Context, characterID shared.CharacterID) ([]*StatProgress, error)

	// UpdateStatProgress writes a stat's XP/level fields with a version
	// check, bumping Version on success.
	UpdateStatProgress(ctx context.Context, stat *StatProgress) error

	// UpdateStatTitle attaches a level title without touching XP fields.
	// The title is an enrichment; it deliberately bypasses the version
	// check so a slow generation cannot conflict with an XP commit.
	UpdateStatTitle(ctx context.Context, id shared.StatID, level shared.Level, title string) error

	// ListCharacterIDs returns the IDs of all characters (for background jobs).
	ListCharacterIDs(ctx context.Context) ([]shared.CharacterID, error)
}
