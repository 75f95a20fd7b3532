package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

type recordingTitleGen struct {
	title string
	err   error
	calls int
}

func (g *recordingTitleGen) GenerateTitle(_ context.Context, _ character.TitleRequest) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.title, nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) InvalidateSheet(_ context.Context, _ shared.CharacterID) error {
	i.calls++
	return nil
}

// unsettleStat banks XP on a stat without settling its level, the state an
// explicit level-up acts on.
func unsettleStat(t *testing.T, c *character.Character, category shared.StatCategory, totalXP int) *character.StatProgress {
	t.Helper()
	for _, s := range c.Stats {
		if s.Category == category {
			s.TotalXP = shared.XP(totalXP)
			s.CurrentXP = shared.XP(totalXP)
			return s
		}
	}
	t.Fatalf("stat %s not found", category)
	return nil
}

func fastTitleConfig() LevelUpStatHandlerConfig {
	return LevelUpStatHandlerConfig{
		TitleTimeout: 200 * time.Millisecond,
		TitleRetries: 0,
	}
}

func TestLevelUpStat_SingleLevel(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)
	unsettleStat(t, c, shared.CategoryPhysical, 150)
	bus := &capturingBus{}
	gen := &recordingTitleGen{title: "Iron Novice"}
	inval := &countingInvalidator{}

	handler := NewLevelUpStatHandler(repo, gen, bus, inval, fastTitleConfig())
	res, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "physical",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, 1, res.LevelsGained)
	assert.Equal(t, []int{2}, res.LevelProgression)
	assert.Equal(t, 150, res.TotalXP)
	assert.Equal(t, 50, res.CurrentXP)
	assert.Equal(t, "Iron Novice", res.LevelTitle)
	assert.True(t, res.TitleGenerated)

	assert.Len(t, bus.byType(shared.EventStatLeveledUp), 1)
	assert.Len(t, bus.byType(shared.EventTitleAssigned), 1)
	assert.Equal(t, 1, inval.calls)

	stored, err := repo.GetStatByCategory(context.Background(), c.ID, shared.CategoryPhysical)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(2), stored.CurrentLevel)
	assert.Equal(t, "Iron Novice", stored.LevelTitle)
}

func TestLevelUpStat_MultiLevelJump(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)
	// 600 total XP clears levels 2 (100) and 3 (300) and lands on 4 (600).
	unsettleStat(t, c, shared.CategoryMental, 600)

	handler := NewLevelUpStatHandler(repo, nil, nil, nil, fastTitleConfig())
	res, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "mental",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.NewLevel)
	assert.Equal(t, 3, res.LevelsGained)
	assert.Equal(t, []int{2, 3, 4}, res.LevelProgression)
	assert.Equal(t, 0, res.CurrentXP)
}

func TestLevelUpStat_NotReady(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)
	unsettleStat(t, c, shared.CategoryPhysical, 50)

	handler := NewLevelUpStatHandler(repo, nil, nil, nil, fastTitleConfig())
	_, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "physical",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotReadyToLevelUp)
}

func TestLevelUpStat_TitleFailureFallsBack(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)
	unsettleStat(t, c, shared.CategoryPhysical, 150)
	gen := &recordingTitleGen{err: errors.New("model overloaded")}

	handler := NewLevelUpStatHandler(repo, gen, nil, nil, fastTitleConfig())
	res, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "physical",
	})
	require.NoError(t, err)

	assert.False(t, res.TitleGenerated)
	assert.Equal(t, character.FallbackTitle(shared.CategoryPhysical, 2), res.LevelTitle)
	assert.Equal(t, 2, res.NewLevel)

	// The level change survived the generator failure.
	stored, err := repo.GetStatByCategory(context.Background(), c.ID, shared.CategoryPhysical)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(2), stored.CurrentLevel)
}

func TestLevelUpStat_NilGeneratorUsesFallback(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)
	unsettleStat(t, c, shared.CategorySpirit, 150)

	handler := NewLevelUpStatHandler(repo, nil, nil, nil, fastTitleConfig())
	res, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "spirit",
	})
	require.NoError(t, err)
	assert.False(t, res.TitleGenerated)
	assert.Equal(t, character.FallbackTitle(shared.CategorySpirit, 2), res.LevelTitle)
}

func TestLevelUpStat_UnknownCharacter(t *testing.T) {
	repo := newFakeCharacterRepo()

	handler := NewLevelUpStatHandler(repo, nil, nil, nil, fastTitleConfig())
	_, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: "4c2f7e0a-0000-4000-8000-00000000dead",
		Category:    "physical",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestLevelUpStat_InvalidCategory(t *testing.T) {
	repo := newFakeCharacterRepo()
	c := newTestCharacter(t, repo)

	handler := NewLevelUpStatHandler(repo, nil, nil, nil, fastTitleConfig())
	_, err := handler.Handle(context.Background(), LevelUpStatCommand{
		CharacterID: c.ID.String(),
		Category:    "luck",
	})
	require.Error(t, err)
}
