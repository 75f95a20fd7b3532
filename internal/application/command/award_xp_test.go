package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// fakeCharacterRepo is an in-memory character.Repository with real
// version-check semantics on stat updates.
type fakeCharacterRepo struct {
	mu         sync.Mutex
	characters map[shared.CharacterID]*character.Character
	stats      map[shared.StatID]*character.StatProgress

	// conflictsLeft forces this many optimistic-lock failures before
	// updates start succeeding.
	conflictsLeft int

	titleWrites []string
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{
		characters: make(map[shared.CharacterID]*character.Character),
		stats:      make(map[shared.StatID]*character.StatProgress),
	}
}

func (r *fakeCharacterRepo) addCharacter(c *character.Character) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.characters[c.ID] = c
	for _, s := range c.Stats {
		r.stats[s.ID] = s
	}
}

func (r *fakeCharacterRepo) Create(_ context.Context, c *character.Character) error {
	r.addCharacter(c)
	return nil
}

func (r *fakeCharacterRepo) GetByID(_ context.Context, id shared.CharacterID) (*character.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.characters[id]
	if !ok {
		return nil, shared.ErrCharacterNotFound
	}
	return c, nil
}

func (r *fakeCharacterRepo) GetByUserID(_ context.Context, userID shared.UserID) (*character.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.characters {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, shared.ErrCharacterNotFound
}

func (r *fakeCharacterRepo) GetStat(_ context.Context, id shared.StatID) (*character.StatProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[id]
	if !ok {
		return nil, shared.ErrStatNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeCharacterRepo) GetStatByCategory(_ context.Context, characterID shared.CharacterID, category shared.StatCategory) (*character.StatProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stats {
		if s.CharacterID == characterID && s.Category == category {
			copied := *s
			return &copied, nil
		}
	}
	return nil, shared.ErrStatNotFound
}

func (r *fakeCharacterRepo) ListStats(_ context.Context, characterID shared.CharacterID) ([]*character.StatProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*character.StatProgress
	for _, s := range r.stats {
		if s.CharacterID == characterID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCharacterRepo) UpdateStatProgress(_ context.Context, stat *character.StatProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return shared.ErrStatVersionConflict
	}
	stored, ok := r.stats[stat.ID]
	if !ok {
		return shared.ErrStatNotFound
	}
	if stored.Version != stat.Version {
		return shared.ErrStatVersionConflict
	}
	stat.Version++
	copied := *stat
	r.stats[stat.ID] = &copied
	return nil
}

func (r *fakeCharacterRepo) UpdateStatTitle(_ context.Context, id shared.StatID, level shared.Level, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.stats[id]
	if !ok {
		return shared.ErrStatNotFound
	}
	stored.LevelTitle = title
	r.titleWrites = append(r.titleWrites, title)
	return nil
}

func (r *fakeCharacterRepo) ListCharacterIDs(_ context.Context) ([]shared.CharacterID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []shared.CharacterID
	for id := range r.characters {
		ids = append(ids, id)
	}
	return ids, nil
}

// capturingBus records published events.
type capturingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *capturingBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *capturingBus) byType(t shared.EventType) []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []shared.Event
	for _, e := range b.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestCharacter(t *testing.T, repo *fakeCharacterRepo) *character.Character {
	t.Helper()
	userID := shared.UserID("2f1f3c52-0000-4000-8000-000000000001")
	c, err := character.NewCharacter(userID, "Asel", "Ranger", "grew up by the steppe")
	require.NoError(t, err)
	repo.addCharacter(c)
	return c
}

func TestAwardXP_NoLevelUp(t *testing.T) {
	repo := newFakeCharacterRepo()
	bus := &capturingBus{}
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, bus, nil)
	result, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "physical",
		Delta:       40,
		Source:      SourceManual,
	})
	require.NoError(t, err)

	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 1, result.NewLevel)
	assert.Equal(t, 40, result.TotalXP)
	assert.Equal(t, 40, result.CurrentXP)
	assert.Empty(t, result.LevelProgression)

	assert.Len(t, bus.byType(shared.EventXPAwarded), 1)
	assert.Empty(t, bus.byType(shared.EventStatLeveledUp))

	// The write landed.
	stat, err := repo.GetStatByCategory(context.Background(), c.ID, shared.CategoryPhysical)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(40), stat.TotalXP)
}

func TestAwardXP_LevelUpEmitsEvent(t *testing.T) {
	repo := newFakeCharacterRepo()
	bus := &capturingBus{}
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, bus, nil)
	result, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "mental",
		Delta:       150,
		Source:      SourceTask,
		SourceID:    "task-1",
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.Equal(t, 1, result.LevelsGained)
	assert.Equal(t, []int{2}, result.LevelProgression)
	assert.Equal(t, 150, result.TotalXP)
	assert.Equal(t, 50, result.CurrentXP)

	levelUps := bus.byType(shared.EventStatLeveledUp)
	require.Len(t, levelUps, 1)
	event := levelUps[0].(character.StatLeveledUpEvent)
	assert.Equal(t, 2, event.NewLevel)
	assert.Equal(t, "mental", event.Category)
}

func TestAwardXP_MultiLevelProgression(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, &capturingBus{}, nil)
	result, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "craft",
		Delta:       600,
		Source:      SourceManual,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.LevelsGained)
	assert.Equal(t, []int{2, 3, 4}, result.LevelProgression)
}

func TestAwardXP_RetriesOnVersionConflict(t *testing.T) {
	repo := newFakeCharacterRepo()
	repo.conflictsLeft = 2
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, &capturingBus{}, nil)
	result, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "spirit",
		Delta:       10,
		Source:      SourceManual,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.TotalXP)
}

func TestAwardXP_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeCharacterRepo()
	repo.conflictsLeft = 100
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, &capturingBus{}, nil)
	_, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "spirit",
		Delta:       10,
		Source:      SourceManual,
	})
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)
}

func TestAwardXP_RejectsNegativeDelta(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, &capturingBus{}, nil)
	_, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "physical",
		Delta:       -5,
		Source:      SourceManual,
	})
	assert.ErrorIs(t, err, shared.ErrNegativeXPDelta)
}

func TestAwardXP_ZeroDeltaChangesNothing(t *testing.T) {
	repo := newFakeCharacterRepo()
	bus := &capturingBus{}
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, bus, nil)
	result, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "wealth",
		Delta:       0,
		Source:      SourceManual,
	})
	require.NoError(t, err)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.NewLevel)
	assert.Empty(t, result.LevelTitle)
	assert.Empty(t, bus.byType(shared.EventStatLeveledUp))
}

func TestAwardXP_UnknownCategory(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)

	handler := NewAwardXPHandler(repo, &capturingBus{}, nil)
	_, err := handler.Handle(context.Background(), AwardXPCommand{
		CharacterID: c.ID.String(),
		Category:    "luck",
		Delta:       10,
		Source:      SourceManual,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
