package journal

import (
	"context"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Repository persists journal entries.
type Repository interface {
	// Create stores a new entry (including any attached analysis).
	Create(ctx context.Context, e *Entry) error

	// GetByID returns an entry by ID.
	GetByID(ctx context.Context, id shared.EntryID) (*Entry, error)

	// ListByCharacter returns a character's entries, newest first.
	ListByCharacter(ctx context.Context, characterID shared.CharacterID, limit int) ([]*Entry, error)
}
