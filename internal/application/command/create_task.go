package command

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// CreateTaskCommand contains the data to create a task.
type CreateTaskCommand struct {
	// CharacterID - the owning character.
	CharacterID string

	// Title / Description - what the task is.
	Title       string
	Description string

	// Difficulty - easy, medium, hard or epic.
	Difficulty string

	// Rewards - optional explicit per-stat payout split. When empty, the
	// full difficulty payout goes to DefaultCategory on completion.
	Rewards []RewardInput

	// DefaultCategory - fallback category when Rewards is empty.
	DefaultCategory string
}

// RewardInput is one stat's share of the payout, as given by the caller.
type RewardInput struct {
	Category string
	XP       int
}

// Validate validates the command.
func (c CreateTaskCommand) Validate() error {
	if c.CharacterID == "" {
		return fmt.Errorf("create_task: character_id is required: %w", shared.ErrValidation)
	}
	if c.Title == "" {
		return fmt.Errorf("create_task: title is required: %w", shared.ErrValidation)
	}
	if len(c.Rewards) == 0 && c.DefaultCategory == "" {
		return fmt.Errorf("create_task: rewards or default_category is required: %w", shared.ErrValidation)
	}
	return nil
}

// CreateTaskResult contains the created task.
type CreateTaskResult struct {
	TaskID     string
	Title      string
	Difficulty string
	Status     string
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo      task.Repository
	characterRepo character.Repository
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, characterRepo character.Repository) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo:      taskRepo,
		characterRepo: characterRepo,
	}
}

// Handle executes the creation. The character must exist; an empty rewards
// list is stored as-is and resolved against DefaultCategory at completion.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	characterID, err := shared.NewCharacterID(cmd.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("create_task: %w", err)
	}
	if _, err := h.characterRepo.GetByID(ctx, characterID); err != nil {
		return nil, fmt.Errorf("create_task: %w", err)
	}

	difficulty := task.Difficulty(cmd.Difficulty)

	rewards := make([]task.Reward, 0, len(cmd.Rewards))
	for _, r := range cmd.Rewards {
		category, err := shared.NewStatCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("create_task: %w", err)
		}
		rewards = append(rewards, task.Reward{Category: category, XP: shared.XP(r.XP)})
	}
	if len(rewards) == 0 {
		category, err := shared.NewStatCategory(cmd.DefaultCategory)
		if err != nil {
			return nil, fmt.Errorf("create_task: %w", err)
		}
		rewards = append(rewards, task.Reward{Category: category, XP: difficulty.BaseXP()})
	}

	t, err := task.New(characterID, cmd.Title, cmd.Description, difficulty, rewards)
	if err != nil {
		return nil, err
	}

	if err := h.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create_task: failed to store task: %w", err)
	}

	return &CreateTaskResult{
		TaskID:     t.ID.String(),
		Title:      t.Title,
		Difficulty: string(t.Difficulty),
		Status:     string(t.Status),
	}, nil
}
