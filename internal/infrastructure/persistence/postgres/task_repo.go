// Package postgres implements the PostgreSQL persistence layer for LifeQuest Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository for PostgreSQL.
type TaskRepository struct {
	conn *Connection
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

// rewardRow is the JSONB shape of one reward.
type rewardRow struct {
	Category string `json:"category"`
	XP       int    `json:"xp"`
}

// Create stores a new task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (
			id, character_id, title, description, difficulty, status,
			rewards, suggested_by_ai, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	rewardsJSON, err := marshalRewards(t.Rewards)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		t.ID.String(),
		t.CharacterID.String(),
		t.Title,
		t.Description,
		string(t.Difficulty),
		string(t.Status),
		rewardsJSON,
		t.SuggestedByAI,
		t.CompletedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID returns a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id shared.TaskID) (*task.Task, error) {
	query := `
		SELECT id, character_id, title, description, difficulty, status,
			   rewards, suggested_by_ai, completed_at, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanTask(row)
}

// ListByCharacter returns a character's tasks, newest first. An empty status
// returns all states.
func (r *TaskRepository) ListByCharacter(ctx context.Context, characterID shared.CharacterID, status task.Status, limit int) ([]*task.Task, error) {
	query := `
		SELECT id, character_id, title, description, difficulty, status,
			   rewards, suggested_by_ai, completed_at, created_at, updated_at
		FROM tasks
		WHERE character_id = $1
	`

	args := []interface{}{characterID.String()}
	if status != "" {
		query += " AND status = $2"
		args = append(args, string(status))
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := r.scanTaskFromRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// Update writes a task's mutable fields.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks SET
			title = $1,
			description = $2,
			difficulty = $3,
			status = $4,
			rewards = $5,
			completed_at = $6,
			updated_at = $7
		WHERE id = $8
	`

	rewardsJSON, err := marshalRewards(t.Rewards)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		t.Title,
		t.Description,
		string(t.Difficulty),
		string(t.Status),
		rewardsJSON,
		t.CompletedAt,
		t.UpdatedAt,
		t.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}

	return nil
}

// CountPendingSuggested returns how many AI-suggested tasks are still pending.
func (r *TaskRepository) CountPendingSuggested(ctx context.Context, characterID shared.CharacterID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM tasks WHERE character_id = $1 AND suggested_by_ai AND status = 'pending'",
		characterID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending suggested tasks: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func marshalRewards(rewards []task.Reward) ([]byte, error) {
	rows := make([]rewardRow, 0, len(rewards))
	for _, reward := range rewards {
		rows = append(rows, rewardRow{
			Category: reward.Category.String(),
			XP:       reward.XP.Int(),
		})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rewards: %w", err)
	}
	return data, nil
}

func unmarshalRewards(data []byte) []task.Reward {
	if len(data) == 0 {
		return nil
	}

	var rows []rewardRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}

	rewards := make([]task.Reward, 0, len(rows))
	for _, row := range rows {
		rewards = append(rewards, task.Reward{
			Category: shared.StatCategory(row.Category),
			XP:       shared.XP(row.XP),
		})
	}
	return rewards
}

func (r *TaskRepository) scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	var id, characterID, difficulty, status string
	var rewardsJSON []byte

	err := row.Scan(
		&id,
		&characterID,
		&t.Title,
		&t.Description,
		&difficulty,
		&status,
		&rewardsJSON,
		&t.SuggestedByAI,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.ID = shared.TaskID(id)
	t.CharacterID = shared.CharacterID(characterID)
	t.Difficulty = task.Difficulty(difficulty)
	t.Status = task.Status(status)
	t.Rewards = unmarshalRewards(rewardsJSON)

	return &t, nil
}

func (r *TaskRepository) scanTaskFromRows(rows pgx.Rows) (*task.Task, error) {
	var t task.Task
	var id, characterID, difficulty, status string
	var rewardsJSON []byte

	err := rows.Scan(
		&id,
		&characterID,
		&t.Title,
		&t.Description,
		&difficulty,
		&status,
		&rewardsJSON,
		&t.SuggestedByAI,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.ID = shared.TaskID(id)
	t.CharacterID = shared.CharacterID(characterID)
	t.Difficulty = task.Difficulty(difficulty)
	t.Status = task.Status(status)
	t.Rewards = unmarshalRewards(rewardsJSON)

	return &t, nil
}
