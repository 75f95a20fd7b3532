package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[shared.TaskID]*task.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[shared.TaskID]*task.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id shared.TaskID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, shared.ErrTaskNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) ListByCharacter(_ context.Context, characterID shared.CharacterID, status task.Status, limit int) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Task
	for _, t := range r.tasks {
		if t.CharacterID == characterID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) CountPendingSuggested(_ context.Context, characterID shared.CharacterID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tasks {
		if t.CharacterID == characterID && t.SuggestedByAI && t.Status == task.StatusPending {
			count++
		}
	}
	return count, nil
}

func TestCompleteTask_AwardsEachStatIndependently(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	taskRepo := newFakeTaskRepo()
	bus := &capturingBus{}
	c := newTestCharacter(t, charRepo)

	tk, err := task.New(c.ID, "Morning run", "5k around the park", task.DifficultyMedium, []task.Reward{
		{Category: shared.CategoryPhysical, XP: 25},
		{Category: shared.CategorySpirit, XP: 10},
	})
	require.NoError(t, err)
	require.NoError(t, taskRepo.Create(context.Background(), tk))

	awardHandler := NewAwardXPHandler(charRepo, bus, nil)
	handler := NewCompleteTaskHandler(taskRepo, awardHandler, bus)

	result, err := handler.Handle(context.Background(), CompleteTaskCommand{
		TaskID:      tk.ID.String(),
		CharacterID: c.ID.String(),
	})
	require.NoError(t, err)

	assert.Len(t, result.Awards, 2)
	assert.Equal(t, 35, result.TotalXP)
	assert.Empty(t, result.Failed)

	physical, err := charRepo.GetStatByCategory(context.Background(), c.ID, shared.CategoryPhysical)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(25), physical.TotalXP)

	spirit, err := charRepo.GetStatByCategory(context.Background(), c.ID, shared.CategorySpirit)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(10), spirit.TotalXP)

	assert.Len(t, bus.byType(shared.EventTaskCompleted), 1)
	assert.Len(t, bus.byType(shared.EventXPAwarded), 2)
}

func TestCompleteTask_DefaultRewardUsesDifficulty(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	taskRepo := newFakeTaskRepo()
	c := newTestCharacter(t, charRepo)

	tk, err := task.New(c.ID, "Fix the shelf", "", task.DifficultyEasy, nil)
	require.NoError(t, err)
	require.NoError(t, taskRepo.Create(context.Background(), tk))

	handler := NewCompleteTaskHandler(taskRepo, NewAwardXPHandler(charRepo, &capturingBus{}, nil), &capturingBus{})
	result, err := handler.Handle(context.Background(), CompleteTaskCommand{
		TaskID:      tk.ID.String(),
		CharacterID: c.ID.String(),
	})
	require.NoError(t, err)

	require.Len(t, result.Awards, 1)
	assert.Equal(t, "craft", result.Awards[0].Category)
	assert.Equal(t, task.DifficultyEasy.BaseXP().Int(), result.Awards[0].XPAwarded)
}

func TestCompleteTask_CompletingTwiceFails(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	taskRepo := newFakeTaskRepo()
	c := newTestCharacter(t, charRepo)

	tk, err := task.New(c.ID, "Meditate", "", task.DifficultyEasy, nil)
	require.NoError(t, err)
	require.NoError(t, taskRepo.Create(context.Background(), tk))

	handler := NewCompleteTaskHandler(taskRepo, NewAwardXPHandler(charRepo, &capturingBus{}, nil), &capturingBus{})
	cmd := CompleteTaskCommand{TaskID: tk.ID.String(), CharacterID: c.ID.String()}

	_, err = handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrTaskAlreadyCompleted)
}

func TestCompleteTask_WrongCharacterRejected(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	taskRepo := newFakeTaskRepo()
	c := newTestCharacter(t, charRepo)

	tk, err := task.New("0cc5ad6e-0000-4000-8000-00000000beef", "Not yours", "", task.DifficultyEasy, nil)
	require.NoError(t, err)
	require.NoError(t, taskRepo.Create(context.Background(), tk))

	handler := NewCompleteTaskHandler(taskRepo, NewAwardXPHandler(charRepo, &capturingBus{}, nil), &capturingBus{})
	_, err = handler.Handle(context.Background(), CompleteTaskCommand{
		TaskID:      tk.ID.String(),
		CharacterID: c.ID.String(),
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
