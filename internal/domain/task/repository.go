package task

import (
	"context"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Repository persists tasks.
type Repository interface {
	// Create stores a new task.
	Create(ctx context.Context, t *Task) error

	// GetByID returns a task by ID.
	GetByID(ctx context.Context, id shared.TaskID) (*Task, error)

	// ListByCharacter returns a character's tasks, newest first, optionally
	// filtered by status (empty status means all).
	ListByCharacter(ctx context.Context, characterID shared.CharacterID, status Status, limit int) ([]*Task, error)

	// Update writes a task's mutable fields.
	Update(ctx context.Context, t *Task) error

	// CountPendingSuggested returns how many AI-suggested tasks are still
	// pending for a character. The suggestion job uses this as a cap.
	CountPendingSuggested(ctx context.Context, characterID shared.CharacterID) (int, error)
}
