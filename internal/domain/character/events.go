package character

import (
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// CharacterCreatedEvent is emitted when a user creates their character.
type CharacterCreatedEvent struct {
	shared.BaseEvent
	CharacterID string `json:"character_id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Class       string `json:"class"`
}

// Payload implements shared.Event.
func (e CharacterCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"character_id": e.CharacterID,
		"user_id":      e.UserID,
		"name":         e.Name,
		"class":        e.Class,
	}
}

// NewCharacterCreatedEvent creates a new CharacterCreatedEvent.
func NewCharacterCreatedEvent(c *Character) CharacterCreatedEvent {
	return CharacterCreatedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventCharacterCreated, c.ID.String()),
		CharacterID: c.ID.String(),
		UserID:      c.UserID.String(),
		Name:        c.Name,
		Class:       c.Class,
	}
}

// XPAwardedEvent is emitted whenever a stat receives XP, level-up or not.
type XPAwardedEvent struct {
	shared.BaseEvent
	CharacterID string `json:"character_id"`
	StatID      string `json:"stat_id"`
	Category    string `json:"category"`
	Delta       int    `json:"delta"`
	NewTotalXP  int    `json:"new_total_xp"`
	Source      string `json:"source"` // e.g. "task", "journal", "manual"
	SourceID    string `json:"source_id,omitempty"`
}

// Payload implements shared.Event.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"character_id": e.CharacterID,
		"stat_id":      e.StatID,
		"category":     e.Category,
		"delta":        e.Delta,
		"new_total_xp": e.NewTotalXP,
		"source":       e.Source,
		"source_id":    e.SourceID,
	}
}

// NewXPAwardedEvent creates a new XPAwardedEvent.
func NewXPAwardedEvent(stat *StatProgress, delta shared.XP, source, sourceID string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventXPAwarded, stat.ID.String()),
		CharacterID: stat.CharacterID.String(),
		StatID:      stat.ID.String(),
		Category:    stat.Category.String(),
		Delta:       delta.Int(),
		NewTotalXP:  stat.TotalXP.Int(),
		Source:      source,
		SourceID:    sourceID,
	}
}

// StatLeveledUpEvent is emitted when an award crosses one or more level
// thresholds. Title enrichment subscribes to this event.
type StatLeveledUpEvent struct {
	shared.BaseEvent
	CharacterID      string `json:"character_id"`
	StatID           string `json:"stat_id"`
	Category         string `json:"category"`
	OldLevel         int    `json:"old_level"`
	NewLevel         int    `json:"new_level"`
	LevelsGained     int    `json:"levels_gained"`
	LevelProgression []int  `json:"level_progression"`
	TotalXP          int    `json:"total_xp"`
}

// Payload implements shared.Event.
func (e StatLeveledUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"character_id":      e.CharacterID,
		"stat_id":           e.StatID,
		"category":          e.Category,
		"old_level":         e.OldLevel,
		"new_level":         e.NewLevel,
		"levels_gained":     e.LevelsGained,
		"level_progression": e.LevelProgression,
		"total_xp":          e.TotalXP,
	}
}

// NewStatLeveledUpEvent creates a new StatLeveledUpEvent.
func NewStatLeveledUpEvent(stat *StatProgress, oldLevel shared.Level, rewards LevelUpRewards) StatLeveledUpEvent {
	progression := make([]int, len(rewards.LevelProgression))
	for i, l := range rewards.LevelProgression {
		progression[i] = l.Int()
	}
	return StatLeveledUpEvent{
		BaseEvent:        shared.NewBaseEvent(shared.EventStatLeveledUp, stat.ID.String()),
		CharacterID:      stat.CharacterID.String(),
		StatID:           stat.ID.String(),
		Category:         stat.Category.String(),
		OldLevel:         oldLevel.Int(),
		NewLevel:         rewards.NewLevel.Int(),
		LevelsGained:     rewards.LevelsGained,
		LevelProgression: progression,
		TotalXP:          stat.TotalXP.Int(),
	}
}

// TitleAssignedEvent is emitted once a level title (generated or fallback)
// has been attached to a stat.
type TitleAssignedEvent struct {
	shared.BaseEvent
	StatID    string `json:"stat_id"`
	Category  string `json:"category"`
	Level     int    `json:"level"`
	Title     string `json:"title"`
	Generated bool   `json:"generated"` // false when the fallback was used
}

// Payload implements shared.Event.
func (e TitleAssignedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"stat_id":   e.StatID,
		"category":  e.Category,
		"level":     e.Level,
		"title":     e.Title,
		"generated": e.Generated,
	}
}

// NewTitleAssignedEvent creates a new TitleAssignedEvent.
func NewTitleAssignedEvent(statID shared.StatID, category shared.StatCategory, level shared.Level, title string, generated bool) TitleAssignedEvent {
	return TitleAssignedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventTitleAssigned, statID.String()),
		StatID:    statID.String(),
		Category:  category.String(),
		Level:     level.Int(),
		Title:     title,
		Generated: generated,
	}
}
