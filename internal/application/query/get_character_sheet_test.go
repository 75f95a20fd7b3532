package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// sheetRepo is a minimal character.Repository backed by one character.
type sheetRepo struct {
	char  *character.Character
	loads int
}

func (r *sheetRepo) Create(context.Context, *character.Character) error { return nil }

func (r *sheetRepo) GetByID(_ context.Context, id shared.CharacterID) (*character.Character, error) {
	r.loads++
	if r.char == nil || r.char.ID != id {
		return nil, shared.ErrCharacterNotFound
	}
	return r.char, nil
}

func (r *sheetRepo) GetByUserID(context.Context, shared.UserID) (*character.Character, error) {
	return nil, shared.ErrCharacterNotFound
}

func (r *sheetRepo) GetStat(context.Context, shared.StatID) (*character.StatProgress, error) {
	return nil, shared.ErrStatNotFound
}

func (r *sheetRepo) GetStatByCategory(_ context.Context, characterID shared.CharacterID, category shared.StatCategory) (*character.StatProgress, error) {
	if r.char == nil || r.char.ID != characterID {
		return nil, shared.ErrStatNotFound
	}
	for _, s := range r.char.Stats {
		if s.Category == category {
			return s, nil
		}
	}
	return nil, shared.ErrStatNotFound
}

func (r *sheetRepo) ListStats(context.Context, shared.CharacterID) ([]*character.StatProgress, error) {
	if r.char == nil {
		return nil, shared.ErrCharacterNotFound
	}
	return r.char.Stats, nil
}

func (r *sheetRepo) UpdateStatProgress(context.Context, *character.StatProgress) error { return nil }

func (r *sheetRepo) UpdateStatTitle(context.Context, shared.StatID, shared.Level, string) error {
	return nil
}

func (r *sheetRepo) ListCharacterIDs(context.Context) ([]shared.CharacterID, error) { return nil, nil }

// memSheetCache is an in-memory SheetCache.
type memSheetCache struct {
	sheets map[shared.CharacterID]*CharacterSheet
	hits   int
	sets   int
}

func newMemSheetCache() *memSheetCache {
	return &memSheetCache{sheets: make(map[shared.CharacterID]*CharacterSheet)}
}

func (c *memSheetCache) GetSheet(_ context.Context, id shared.CharacterID) (*CharacterSheet, error) {
	if sheet, ok := c.sheets[id]; ok {
		c.hits++
		return sheet, nil
	}
	return nil, nil
}

func (c *memSheetCache) SetSheet(_ context.Context, sheet *CharacterSheet) error {
	c.sets++
	c.sheets[shared.CharacterID(sheet.CharacterID)] = sheet
	return nil
}

func sheetTestCharacter(t *testing.T) *character.Character {
	t.Helper()
	c, err := character.NewCharacter(
		shared.UserID("9a6b1c20-0000-4000-8000-000000000002"),
		"Dana", "Monk", "keeps a morning routine",
	)
	require.NoError(t, err)
	return c
}

func findStat(t *testing.T, c *character.Character, category shared.StatCategory) *character.StatProgress {
	t.Helper()
	for _, s := range c.Stats {
		if s.Category == category {
			return s
		}
	}
	t.Fatalf("stat %s not found", category)
	return nil
}

func TestGetCharacterSheet_BuildsAllStats(t *testing.T) {
	c := sheetTestCharacter(t)
	repo := &sheetRepo{char: c}

	handler := NewGetCharacterSheetHandler(repo, nil)
	sheet, err := handler.Handle(context.Background(), GetCharacterSheetQuery{CharacterID: c.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, c.ID.String(), sheet.CharacterID)
	assert.Equal(t, "Dana", sheet.Name)
	assert.Len(t, sheet.Stats, len(shared.AllCategories()))

	for _, view := range sheet.Stats {
		assert.Equal(t, 1, view.Level)
		assert.Equal(t, 0, view.TotalXP)
		assert.Equal(t, 100, view.XPToNextLevel)
		assert.False(t, view.ReadyToLevelUp)
		assert.NotEmpty(t, view.DisplayName)
	}
}

func TestGetCharacterSheet_ViewReflectsBankedXP(t *testing.T) {
	c := sheetTestCharacter(t)
	stat := findStat(t, c, shared.CategoryCraft)
	stat.TotalXP = 150
	stat.CurrentXP = 150
	repo := &sheetRepo{char: c}

	handler := NewGetCharacterSheetHandler(repo, nil)
	sheet, err := handler.Handle(context.Background(), GetCharacterSheetQuery{CharacterID: c.ID.String()})
	require.NoError(t, err)

	var craft *StatView
	for i := range sheet.Stats {
		if sheet.Stats[i].Category == "craft" {
			craft = &sheet.Stats[i]
		}
	}
	require.NotNil(t, craft)

	assert.Equal(t, 150, craft.TotalXP)
	assert.True(t, craft.ReadyToLevelUp)
	assert.Equal(t, 0, craft.XPToNextLevel)
	assert.Equal(t, 100.0, craft.ProgressPercent)
}

func TestGetCharacterSheet_ServedFromCache(t *testing.T) {
	c := sheetTestCharacter(t)
	repo := &sheetRepo{char: c}
	cache := newMemSheetCache()

	handler := NewGetCharacterSheetHandler(repo, cache)
	q := GetCharacterSheetQuery{CharacterID: c.ID.String()}

	_, err := handler.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
	assert.Equal(t, 1, cache.sets)

	_, err = handler.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads, "second read must not hit the repository")
	assert.Equal(t, 1, cache.hits)
}

func TestGetCharacterSheet_UnknownCharacter(t *testing.T) {
	repo := &sheetRepo{}

	handler := NewGetCharacterSheetHandler(repo, nil)
	_, err := handler.Handle(context.Background(), GetCharacterSheetQuery{
		CharacterID: "4c2f7e0a-0000-4000-8000-00000000dead",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetStatProgress_Thresholds(t *testing.T) {
	c := sheetTestCharacter(t)
	stat := findStat(t, c, shared.CategoryWealth)
	stat.TotalXP = 130
	stat.CurrentXP = 30
	stat.CurrentLevel = 2
	repo := &sheetRepo{char: c}

	handler := NewGetStatProgressHandler(repo)
	view, err := handler.Handle(context.Background(), GetStatProgressQuery{
		CharacterID: c.ID.String(),
		Category:    "wealth",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, view.Level)
	assert.Equal(t, 100, view.CurrentLevelXP)
	assert.Equal(t, 300, view.NextLevelXP)
	assert.Equal(t, 170, view.XPToNextLevel)
	assert.InDelta(t, 15.0, view.ProgressPercent, 0.001)
	assert.False(t, view.ReadyToLevelUp)
}
