// Package task contains the task aggregate: real-world to-dos whose
// completion awards XP to one or more character stats.
package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// IsValid checks if the status is one of the known set.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Difficulty buckets a task's effort and drives its XP payout.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyEpic   Difficulty = "epic"
)

// IsValid checks if the difficulty is one of the known set.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyEpic:
		return true
	}
	return false
}

// BaseXP returns the XP payout for this difficulty.
func (d Difficulty) BaseXP() shared.XP {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 25
	case DifficultyHard:
		return 60
	case DifficultyEpic:
		return 150
	default:
		return 0
	}
}

// NewDifficulty creates a Difficulty with validation.
func NewDifficulty(value string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(value)))
	if !d.IsValid() {
		return "", shared.ErrInvalidDifficulty
	}
	return d, nil
}

// Reward is one stat's share of a task's XP payout.
type Reward struct {
	Category shared.StatCategory
	XP       shared.XP
}

// Task is a unit of real-world work attached to a character.
type Task struct {
	// ID - unique task identifier.
	ID shared.TaskID

	// CharacterID - the character this task belongs to.
	CharacterID shared.CharacterID

	// Title / Description - user- or AI-provided text.
	Title       string
	Description string

	// Difficulty - effort bucket; drives the XP payout.
	Difficulty Difficulty

	// Rewards - per-stat XP awards granted on completion. Each stat's award
	// is applied independently; there is no cross-stat atomicity.
	Rewards []Reward

	// Status - lifecycle state.
	Status Status

	// SuggestedByAI - true when the task came from the daily suggestion job.
	SuggestedByAI bool

	// CompletedAt - set when the task is completed.
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a pending task. When rewards is empty, the full difficulty
// payout goes to the single given category.
func New(characterID shared.CharacterID, title, description string, difficulty Difficulty, rewards []Reward) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("task", "New", shared.ErrEmptyValue, "task title is required")
	}
	if !difficulty.IsValid() {
		return nil, shared.ErrInvalidDifficulty
	}
	for _, r := range rewards {
		if !r.Category.IsValid() {
			return nil, shared.ErrInvalidStatCategory
		}
		if r.XP < 0 {
			return nil, shared.NewDomainError("task", "New", shared.ErrNegativeValue, "reward XP cannot be negative")
		}
	}

	now := time.Now().UTC()
	return &Task{
		ID:          shared.TaskID(uuid.New().String()),
		CharacterID: characterID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Difficulty:  difficulty,
		Rewards:     rewards,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// EffectiveRewards returns the per-stat payouts, falling back to the full
// difficulty payout on the given default category when none were set.
func (t *Task) EffectiveRewards(defaultCategory shared.StatCategory) []Reward {
	if len(t.Rewards) > 0 {
		return t.Rewards
	}
	return []Reward{{Category: defaultCategory, XP: t.Difficulty.BaseXP()}}
}

// MarkSuggested flags the task as coming from the daily suggestion job.
func (t *Task) MarkSuggested() {
	t.SuggestedByAI = true
}

// Complete transitions the task to completed. Completing twice or completing
// an archived task is rejected.
func (t *Task) Complete() error {
	switch t.Status {
	case StatusCompleted:
		return shared.ErrTaskAlreadyCompleted
	case StatusArchived:
		return shared.ErrTaskArchived
	}
	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Archive retires a pending task without awarding anything.
func (t *Task) Archive() error {
	if t.Status == StatusCompleted {
		return shared.NewDomainError("task", "Archive", shared.ErrStateTransition, "completed tasks cannot be archived")
	}
	t.Status = StatusArchived
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// TaskCompletedEvent is emitted when a task completes.
type TaskCompletedEvent struct {
	shared.BaseEvent
	TaskID      string `json:"task_id"`
	CharacterID string `json:"character_id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
}

// Payload implements shared.Event.
func (e TaskCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"task_id":      e.TaskID,
		"character_id": e.CharacterID,
		"title":        e.Title,
		"difficulty":   e.Difficulty,
	}
}

// NewTaskCompletedEvent creates a new TaskCompletedEvent.
func NewTaskCompletedEvent(t *Task) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventTaskCompleted, t.ID.String()),
		TaskID:      t.ID.String(),
		CharacterID: t.CharacterID.String(),
		Title:       t.Title,
		Difficulty:  string(t.Difficulty),
	}
}
