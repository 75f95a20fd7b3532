package command

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE TASK COMMAND
// Marks a task completed and pays out its XP rewards. Each stat's award is an
// independent read-compute-write cycle: one stat failing does not roll back
// the others, only the per-stat update is internally consistent.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteTaskCommand contains the data to complete a task.
type CompleteTaskCommand struct {
	// TaskID - the task being completed.
	TaskID string

	// CharacterID - the character completing it, checked against ownership.
	CharacterID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteTaskCommand) Validate() error {
	if c.TaskID == "" {
		return fmt.Errorf("complete_task: task_id is required: %w", shared.ErrValidation)
	}
	if c.CharacterID == "" {
		return fmt.Errorf("complete_task: character_id is required: %w", shared.ErrValidation)
	}
	return nil
}

// StatAwardOutcome is one stat's share of the payout.
type StatAwardOutcome struct {
	Category     string
	XPAwarded    int
	NewLevel     int
	LeveledUp    bool
	LevelsGained int
}

// CompleteTaskResult contains the result of completing a task.
type CompleteTaskResult struct {
	TaskID  string
	Title   string
	Awards  []StatAwardOutcome
	TotalXP int

	// Failed lists categories whose award failed after retries. The task
	// is still completed; the caller may surface these for manual replay.
	Failed []string
}

// CompleteTaskHandler handles the CompleteTaskCommand.
type CompleteTaskHandler struct {
	taskRepo       task.Repository
	awardHandler   *AwardXPHandler
	eventPublisher shared.EventPublisher
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(
	taskRepo task.Repository,
	awardHandler *AwardXPHandler,
	eventPublisher shared.EventPublisher,
) *CompleteTaskHandler {
	return &CompleteTaskHandler{
		taskRepo:       taskRepo,
		awardHandler:   awardHandler,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the task completion.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*CompleteTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.taskRepo.GetByID(ctx, shared.TaskID(cmd.TaskID))
	if err != nil {
		return nil, fmt.Errorf("complete_task: failed to load task: %w", err)
	}
	if t.CharacterID.String() != cmd.CharacterID {
		return nil, shared.NewDomainError("task", "Complete", shared.ErrForbidden, "task belongs to another character")
	}

	if err := t.Complete(); err != nil {
		return nil, err
	}
	if err := h.taskRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("complete_task: failed to persist task: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(task.NewTaskCompletedEvent(t))
	}

	result := &CompleteTaskResult{
		TaskID: t.ID.String(),
		Title:  t.Title,
	}

	// Defaulting: tasks with no explicit reward split pay the full
	// difficulty XP into the craft stat.
	for _, reward := range t.EffectiveRewards(shared.CategoryCraft) {
		award, err := h.awardHandler.Handle(ctx, AwardXPCommand{
			CharacterID:   cmd.CharacterID,
			Category:      reward.Category.String(),
			Delta:         reward.XP.Int(),
			Source:        SourceTask,
			SourceID:      t.ID.String(),
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			result.Failed = append(result.Failed, reward.Category.String())
			continue
		}

		result.Awards = append(result.Awards, StatAwardOutcome{
			Category:     award.Category,
			XPAwarded:    reward.XP.Int(),
			NewLevel:     award.NewLevel,
			LeveledUp:    award.LeveledUp,
			LevelsGained: award.LevelsGained,
		})
		result.TotalXP += reward.XP.Int()
	}

	return result, nil
}
