package query

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// ListTasksQuery filters a character's tasks.
type ListTasksQuery struct {
	CharacterID string

	// Status - optional filter; empty means all.
	Status string

	// Limit - maximum rows to return; non-positive falls back to 50.
	Limit int
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle lists the tasks, newest first.
func (h *ListTasksHandler) Handle(ctx context.Context, q ListTasksQuery) ([]TaskView, error) {
	characterID, err := shared.NewCharacterID(q.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("list_tasks: %w", err)
	}

	status := task.Status(q.Status)
	if q.Status != "" && !status.IsValid() {
		return nil, fmt.Errorf("list_tasks: %w", shared.ErrInvalidTaskStatus)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	tasks, err := h.taskRepo.ListByCharacter(ctx, characterID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list_tasks: failed to list tasks: %w", err)
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t))
	}
	return views, nil
}
