package query

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// GetStatProgressQuery identifies one stat of a character.
type GetStatProgressQuery struct {
	CharacterID string
	Category    string
}

// StatProgressView is the detailed progress shape for one stat.
type StatProgressView struct {
	StatView

	// CurrentLevelXP is the cumulative threshold of the current level.
	CurrentLevelXP int `json:"current_level_xp"`

	// NextLevelXP is the cumulative threshold of the next level.
	NextLevelXP int `json:"next_level_xp"`
}

// GetStatProgressHandler handles the GetStatProgressQuery.
type GetStatProgressHandler struct {
	characterRepo character.Repository
}

// NewGetStatProgressHandler creates a new GetStatProgressHandler.
func NewGetStatProgressHandler(characterRepo character.Repository) *GetStatProgressHandler {
	return &GetStatProgressHandler{characterRepo: characterRepo}
}

// Handle loads one stat's progress.
func (h *GetStatProgressHandler) Handle(ctx context.Context, q GetStatProgressQuery) (*StatProgressView, error) {
	characterID, err := shared.NewCharacterID(q.CharacterID)
	if err != nil {
		return nil, err
	}
	category, err := shared.NewStatCategory(q.Category)
	if err != nil {
		return nil, err
	}

	stat, err := h.characterRepo.GetStatByCategory(ctx, characterID, category)
	if err != nil {
		return nil, fmt.Errorf("get_stat_progress: %w", err)
	}

	view, err := buildStatView(stat)
	if err != nil {
		return nil, err
	}
	currentLevelXP, err := character.TotalXPForLevel(stat.CurrentLevel)
	if err != nil {
		return nil, err
	}
	nextLevelXP, err := character.TotalXPForLevel(stat.CurrentLevel + 1)
	if err != nil {
		return nil, err
	}

	return &StatProgressView{
		StatView:       view,
		CurrentLevelXP: currentLevelXP.Int(),
		NextLevelXP:    nextLevelXP.Int(),
	}, nil
}
