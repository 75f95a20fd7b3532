package command

import (
	"context"
	"fmt"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL UP STAT COMMAND
// Explicit level-up requested by the client once a stat has banked enough XP.
// Validates eligibility, applies the transition, then enriches the result
// with a generated title. Title generation is best-effort: its failure never
// blocks or rolls back the level change, and the deterministic fallback is
// used instead.
// ══════════════════════════════════════════════════════════════════════════════

// LevelUpStatCommand contains the data for an explicit level-up.
type LevelUpStatCommand struct {
	// CharacterID / Category locate the stat.
	CharacterID string
	Category    string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c LevelUpStatCommand) Validate() error {
	if c.CharacterID == "" {
		return fmt.Errorf("level_up_stat: character_id is required: %w", shared.ErrValidation)
	}
	if _, err := shared.NewStatCategory(c.Category); err != nil {
		return fmt.Errorf("level_up_stat: %w", err)
	}
	return nil
}

// LevelUpStatResult is the caller-facing result shape.
type LevelUpStatResult struct {
	StatID           string
	Category         string
	OldLevel         int
	NewLevel         int
	LevelsGained     int
	LevelProgression []int
	TotalXP          int
	CurrentXP        int
	LevelTitle       string

	// TitleGenerated is false when the fallback title was used.
	TitleGenerated bool
}

// LevelUpStatHandlerConfig contains configuration for the handler.
type LevelUpStatHandlerConfig struct {
	// TitleTimeout bounds the title-generation call.
	TitleTimeout time.Duration

	// TitleRetries is how many times generation is retried before falling back.
	TitleRetries int
}

// DefaultLevelUpStatHandlerConfig returns default configuration.
func DefaultLevelUpStatHandlerConfig() LevelUpStatHandlerConfig {
	return LevelUpStatHandlerConfig{
		TitleTimeout: 8 * time.Second,
		TitleRetries: 2,
	}
}

// LevelUpStatHandler handles the LevelUpStatCommand.
type LevelUpStatHandler struct {
	characterRepo  character.Repository
	titleGen       character.TitleGenerator
	eventPublisher shared.EventPublisher
	sheetCache     SheetInvalidator
	config         LevelUpStatHandlerConfig
}

// NewLevelUpStatHandler creates a new LevelUpStatHandler. titleGen may be nil;
// the fallback title is used then.
func NewLevelUpStatHandler(
	characterRepo character.Repository,
	titleGen character.TitleGenerator,
	eventPublisher shared.EventPublisher,
	sheetCache SheetInvalidator,
	config LevelUpStatHandlerConfig,
) *LevelUpStatHandler {
	if config.TitleTimeout == 0 {
		config = DefaultLevelUpStatHandlerConfig()
	}
	return &LevelUpStatHandler{
		characterRepo:  characterRepo,
		titleGen:       titleGen,
		eventPublisher: eventPublisher,
		sheetCache:     sheetCache,
		config:         config,
	}
}

// Handle executes the level-up.
func (h *LevelUpStatHandler) Handle(ctx context.Context, cmd LevelUpStatCommand) (*LevelUpStatResult, error) {
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

	char, err := h.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("level_up_stat: failed to load character: %w", err)
	}

	stat, err := h.characterRepo.GetStatByCategory(ctx, characterID, category)
	if err != nil {
		return nil, fmt.Errorf("level_up_stat: failed to load stat: %w", err)
	}

	ready, err := character.IsReadyToLevelUp(stat.TotalXP, stat.CurrentLevel)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, shared.ErrNotReadyToLevelUp
	}

	oldLevel := stat.CurrentLevel
	rewards, err := character.CalculateLevelUpRewards(stat.TotalXP, stat.CurrentLevel)
	if err != nil {
		return nil, err
	}

	// Settle the transition: a zero-delta award recomputes level and
	// current XP from total XP.
	if _, err := stat.Award(0); err != nil {
		return nil, err
	}

	// The XP/level commit happens first; the title is enrichment only.
	if err := h.characterRepo.UpdateStatProgress(ctx, stat); err != nil {
		return nil, fmt.Errorf("level_up_stat: failed to persist stat: %w", err)
	}

	title, generated := h.generateTitle(ctx, char, stat.Category, rewards.NewLevel)
	stat.AssignTitle(title)
	if err := h.characterRepo.UpdateStatTitle(ctx, stat.ID, rewards.NewLevel, title); err != nil {
		// The level change is already committed; a failed title write only
		// costs the flavor text.
		generated = false
		title = character.FallbackTitle(stat.Category, rewards.NewLevel)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(character.NewStatLeveledUpEvent(stat, oldLevel, rewards))
		_ = h.eventPublisher.Publish(character.NewTitleAssignedEvent(stat.ID, stat.Category, rewards.NewLevel, title, generated))
	}
	if h.sheetCache != nil {
		_ = h.sheetCache.InvalidateSheet(ctx, characterID)
	}

	res := &LevelUpStatResult{
		StatID:         stat.ID.String(),
		Category:       stat.Category.String(),
		OldLevel:       oldLevel.Int(),
		NewLevel:       rewards.NewLevel.Int(),
		LevelsGained:   rewards.LevelsGained,
		TotalXP:        stat.TotalXP.Int(),
		CurrentXP:      stat.CurrentXP.Int(),
		LevelTitle:     title,
		TitleGenerated: generated,
	}
	for _, l := range rewards.LevelProgression {
		res.LevelProgression = append(res.LevelProgression, l.Int())
	}
	return res, nil
}

// generateTitle calls the generator with a bounded timeout and bounded
// retries, falling back to the deterministic title on any failure.
func (h *LevelUpStatHandler) generateTitle(ctx context.Context, char *character.Character, category shared.StatCategory, level shared.Level) (title string, generated bool) {
	fallback := character.FallbackTitle(category, level)
	if h.titleGen == nil {
		return fallback, false
	}

	genCtx, cancel := context.WithTimeout(ctx, h.config.TitleTimeout)
	defer cancel()

	req := character.TitleRequest{
		Category:  category,
		NewLevel:  level,
		Class:     char.Class,
		Backstory: char.Backstory,
	}

	result, err := retry.DoWithData(genCtx, func(ctx context.Context) (string, error) {
		return h.titleGen.GenerateTitle(ctx, req)
	},
		retry.WithMaxAttempts(h.config.TitleRetries+1),
		retry.WithInitialDelay(200*time.Millisecond),
		retry.WithRetryIf(func(err error) bool { return !retry.IsPermanent(err) }),
	)
	if err != nil || result == "" {
		return fallback, false
	}
	return result, true
}
