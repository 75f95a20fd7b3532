// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// Adds XP to a single stat and settles any level transition. This is the
// write path behind task completion, journal analysis and manual awards.
// ══════════════════════════════════════════════════════════════════════════════

// AwardSource identifies where an XP award came from.
type AwardSource string

const (
	SourceTask    AwardSource = "task"
	SourceJournal AwardSource = "journal"
	SourceManual  AwardSource = "manual"
)

// AwardXPCommand contains the data for a single-stat XP award.
type AwardXPCommand struct {
	// CharacterID - the character owning the stat.
	CharacterID string

	// Category - which stat receives the XP.
	Category string

	// Delta - XP to add. Must be non-negative; XP loss is not modeled.
	Delta int

	// Source / SourceID - where the award came from, for the event trail.
	Source   AwardSource
	SourceID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.CharacterID == "" {
		return fmt.Errorf("award_xp: character_id is required: %w", shared.ErrValidation)
	}
	if _, err := shared.NewStatCategory(c.Category); err != nil {
		return fmt.Errorf("award_xp: %w", err)
	}
	if c.Delta < 0 {
		return shared.ErrNegativeXPDelta
	}
	return nil
}

// AwardXPResult is the caller-facing outcome of an award.
type AwardXPResult struct {
	StatID       string
	Category     string
	OldLevel     int
	NewLevel     int
	LeveledUp    bool
	LevelsGained int

	// LevelProgression lists the levels passed through when LeveledUp.
	LevelProgression []int

	TotalXP   int
	CurrentXP int

	// LevelTitle is the stat's current title. On a level-up it may still be
	// the previous one; title enrichment lands asynchronously.
	LevelTitle string
}

// AwardXPHandler handles the AwardXPCommand.
type AwardXPHandler struct {
	characterRepo  character.Repository
	eventPublisher shared.EventPublisher
	sheetCache     SheetInvalidator

	// maxConflictRetries bounds re-reads when another writer wins the
	// compare-and-swap on the stat row.
	maxConflictRetries int
}

// SheetInvalidator drops a character's cached sheet after a write.
// The redis cache implements it; a nil invalidator is a no-op.
type SheetInvalidator interface {
	InvalidateSheet(ctx context.Context, characterID shared.CharacterID) error
}

// NewAwardXPHandler creates a new AwardXPHandler.
func NewAwardXPHandler(
	characterRepo character.Repository,
	eventPublisher shared.EventPublisher,
	sheetCache SheetInvalidator,
) *AwardXPHandler {
	return &AwardXPHandler{
		characterRepo:      characterRepo,
		eventPublisher:     eventPublisher,
		sheetCache:         sheetCache,
		maxConflictRetries: 3,
	}
}

// Handle executes the award.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	characterID, err := shared.NewCharacterID(cmd.CharacterID)
	if err != nil {
		return nil, err
	}
	category, err := shared.NewStatCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	return h.award(ctx, characterID, category, shared.XP(cmd.Delta), string(cmd.Source), cmd.SourceID)
}

// award runs the read-compute-CAS cycle for one stat. Each attempt works on a
// fresh snapshot, so a conflict retry recomputes the transition rather than
// replaying a stale one.
func (h *AwardXPHandler) award(ctx context.Context, characterID shared.CharacterID, category shared.StatCategory, delta shared.XP, source, sourceID string) (*AwardXPResult, error) {
	var lastErr error

	for attempt := 0; attempt <= h.maxConflictRetries; attempt++ {
		stat, err := h.characterRepo.GetStatByCategory(ctx, characterID, category)
		if err != nil {
			return nil, fmt.Errorf("award_xp: failed to load stat: %w", err)
		}

		oldLevel := stat.CurrentLevel
		result, err := stat.Award(delta)
		if err != nil {
			return nil, err
		}

		var rewards character.LevelUpRewards
		if result.LeveledUp {
			rewards, err = character.CalculateLevelUpRewards(result.TotalXP, oldLevel)
			if err != nil {
				return nil, fmt.Errorf("award_xp: inconsistent level-up state: %w", err)
			}
		}

		if err := h.characterRepo.UpdateStatProgress(ctx, stat); err != nil {
			if errors.Is(err, shared.ErrOptimisticLock) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("award_xp: failed to persist stat: %w", err)
		}

		h.publish(stat, oldLevel, delta, result, rewards, source, sourceID)

		if h.sheetCache != nil {
			_ = h.sheetCache.InvalidateSheet(ctx, characterID)
		}

		res := &AwardXPResult{
			StatID:       stat.ID.String(),
			Category:     stat.Category.String(),
			OldLevel:     oldLevel.Int(),
			NewLevel:     stat.CurrentLevel.Int(),
			LeveledUp:    result.LeveledUp,
			LevelsGained: result.LevelsGained,
			TotalXP:      stat.TotalXP.Int(),
			CurrentXP:    stat.CurrentXP.Int(),
			LevelTitle:   stat.LevelTitle,
		}
		for _, l := range rewards.LevelProgression {
			res.LevelProgression = append(res.LevelProgression, l.Int())
		}
		return res, nil
	}

	return nil, fmt.Errorf("award_xp: gave up after %d conflict retries: %w", h.maxConflictRetries, lastErr)
}

// publish emits the award events. Publishing is best-effort: the XP commit
// already happened and must not be rolled back for a slow subscriber.
func (h *AwardXPHandler) publish(stat *character.StatProgress, oldLevel shared.Level, delta shared.XP, result character.AwardResult, rewards character.LevelUpRewards, source, sourceID string) {
	if h.eventPublisher == nil {
		return
	}
	_ = h.eventPublisher.Publish(character.NewXPAwardedEvent(stat, delta, source, sourceID))
	if result.LeveledUp {
		_ = h.eventPublisher.Publish(character.NewStatLeveledUpEvent(stat, oldLevel, rewards))
	}
}
