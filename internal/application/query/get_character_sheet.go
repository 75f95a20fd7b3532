// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// StatView is one stat's display shape.
type StatView struct {
	StatID          string  `json:"stat_id"`
	Category        string  `json:"category"`
	DisplayName     string  `json:"display_name"`
	Level           int     `json:"level"`
	LevelTitle      string  `json:"level_title,omitempty"`
	TotalXP         int     `json:"total_xp"`
	CurrentXP       int     `json:"current_xp"`
	XPToNextLevel   int     `json:"xp_to_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
	ReadyToLevelUp  bool    `json:"ready_to_level_up"`
}

// CharacterSheet is the full character display shape.
type CharacterSheet struct {
	CharacterID string     `json:"character_id"`
	Name        string     `json:"name"`
	Class       string     `json:"class,omitempty"`
	Backstory   string     `json:"backstory,omitempty"`
	Stats       []StatView `json:"stats"`
}

// SheetCache caches assembled character sheets.
type SheetCache interface {
	GetSheet(ctx context.Context, characterID shared.CharacterID) (*CharacterSheet, error)
	SetSheet(ctx context.Context, sheet *CharacterSheet) error
}

// GetCharacterSheetQuery identifies the character to load.
type GetCharacterSheetQuery struct {
	CharacterID string
}

// GetCharacterSheetHandler handles the GetCharacterSheetQuery.
type GetCharacterSheetHandler struct {
	characterRepo character.Repository
	cache         SheetCache
}

// NewGetCharacterSheetHandler creates a new GetCharacterSheetHandler.
// cache may be nil.
func NewGetCharacterSheetHandler(characterRepo character.Repository, cache SheetCache) *GetCharacterSheetHandler {
	return &GetCharacterSheetHandler{
		characterRepo: characterRepo,
		cache:         cache,
	}
}

// Handle loads the sheet, serving from cache when possible.
func (h *GetCharacterSheetHandler) Handle(ctx context.Context, q GetCharacterSheetQuery) (*CharacterSheet, error) {
	characterID, err := shared.NewCharacterID(q.CharacterID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if sheet, err := h.cache.GetSheet(ctx, characterID); err == nil && sheet != nil {
			return sheet, nil
		}
	}

	c, err := h.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("get_character_sheet: %w", err)
	}

	sheet, err := BuildSheet(c)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.SetSheet(ctx, sheet)
	}
	return sheet, nil
}

// BuildSheet assembles the display shape from a loaded character.
func BuildSheet(c *character.Character) (*CharacterSheet, error) {
	sheet := &CharacterSheet{
		CharacterID: c.ID.String(),
		Name:        c.Name,
		Class:       c.Class,
		Backstory:   c.Backstory,
	}

	for _, stat := range c.Stats {
		view, err := buildStatView(stat)
		if err != nil {
			return nil, err
		}
		sheet.Stats = append(sheet.Stats, view)
	}
	return sheet, nil
}

func buildStatView(stat *character.StatProgress) (StatView, error) {
	progress, err := stat.Progress()
	if err != nil {
		return StatView{}, fmt.Errorf("stat %s: %w", stat.ID, err)
	}
	toNext, err := character.XPToNextLevel(stat.TotalXP, stat.CurrentLevel)
	if err != nil {
		return StatView{}, fmt.Errorf("stat %s: %w", stat.ID, err)
	}
	ready, err := character.IsReadyToLevelUp(stat.TotalXP, stat.CurrentLevel)
	if err != nil {
		return StatView{}, fmt.Errorf("stat %s: %w", stat.ID, err)
	}

	return StatView{
		StatID:          stat.ID.String(),
		Category:        stat.Category.String(),
		DisplayName:     stat.Category.DisplayName(),
		Level:           stat.CurrentLevel.Int(),
		LevelTitle:      stat.LevelTitle,
		TotalXP:         stat.TotalXP.Int(),
		CurrentXP:       stat.CurrentXP.Int(),
		XPToNextLevel:   toNext.Int(),
		ProgressPercent: progress.ProgressPercent,
		ReadyToLevelUp:  ready,
	}, nil
}
