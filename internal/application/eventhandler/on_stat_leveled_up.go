// Package eventhandler contains domain event subscribers.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STAT LEVELED UP HANDLER
//
// Enriches a freshly leveled-up stat with a generated title. The XP/level
// change is already committed when this fires; the title is attached after
// the fact and any failure downgrades to the deterministic fallback. Nothing
// here can block or roll back the XP commit.
// ═══════════════════════════════════════════════════════════════════════════

// OnStatLeveledUpHandler subscribes to StatLeveledUpEvent.
type OnStatLeveledUpHandler struct {
	characterRepo character.Repository
	titleGen      character.TitleGenerator
	publisher     shared.EventPublisher
	logger        *slog.Logger
	config        StatLeveledUpConfig
}

// StatLeveledUpConfig contains configuration for the handler.
type StatLeveledUpConfig struct {
	// TitleTimeout bounds the generation call.
	TitleTimeout time.Duration

	// TitleRetries is how many times generation is retried before falling back.
	TitleRetries int
}

// DefaultStatLeveledUpConfig returns default configuration.
func DefaultStatLeveledUpConfig() StatLeveledUpConfig {
	return StatLeveledUpConfig{
		TitleTimeout: 8 * time.Second,
		TitleRetries: 2,
	}
}

// NewOnStatLeveledUpHandler creates a new OnStatLeveledUpHandler.
// titleGen may be nil; the fallback title is assigned then.
func NewOnStatLeveledUpHandler(
	characterRepo character.Repository,
	titleGen character.TitleGenerator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config StatLeveledUpConfig,
) *OnStatLeveledUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TitleTimeout == 0 {
		config = DefaultStatLeveledUpConfig()
	}
	return &OnStatLeveledUpHandler{
		characterRepo: characterRepo,
		titleGen:      titleGen,
		publisher:     publisher,
		logger:        logger.With("handler", "on_stat_leveled_up"),
		config:        config,
	}
}

// Handle implements shared.EventHandler.
func (h *OnStatLeveledUpHandler) Handle(event shared.Event) error {
	levelUp, ok := event.(character.StatLeveledUpEvent)
	if !ok {
		h.logger.Warn("received non-StatLeveledUpEvent", "event_type", event.EventType())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.TitleTimeout+2*time.Second)
	defer cancel()

	category, err := shared.NewStatCategory(levelUp.Category)
	if err != nil {
		h.logger.Error("level-up event carries unknown category", "category", levelUp.Category)
		return nil
	}
	level, err := shared.NewLevel(levelUp.NewLevel)
	if err != nil {
		h.logger.Error("level-up event carries invalid level", "level", levelUp.NewLevel)
		return nil
	}

	title, generated := h.resolveTitle(ctx, levelUp, category, level)

	statID := shared.StatID(levelUp.StatID)
	if err := h.characterRepo.UpdateStatTitle(ctx, statID, level, title); err != nil {
		h.logger.Error("failed to persist level title",
			"stat_id", levelUp.StatID,
			"level", levelUp.NewLevel,
			"error", err,
		)
		return err
	}

	h.logger.Info("level title assigned",
		"stat_id", levelUp.StatID,
		"category", levelUp.Category,
		"level", levelUp.NewLevel,
		"generated", generated,
	)

	if h.publisher != nil {
		_ = h.publisher.Publish(character.NewTitleAssignedEvent(statID, category, level, title, generated))
	}
	return nil
}

// resolveTitle asks the generator, falling back deterministically.
func (h *OnStatLeveledUpHandler) resolveTitle(ctx context.Context, levelUp character.StatLeveledUpEvent, category shared.StatCategory, level shared.Level) (string, bool) {
	fallback := character.FallbackTitle(category, level)
	if h.titleGen == nil {
		return fallback, false
	}

	req := character.TitleRequest{
		Category: category,
		NewLevel: level,
	}
	// Class and backstory flavor the generated title when the character
	// still exists; their absence is not an error.
	if characterID, err := shared.NewCharacterID(levelUp.CharacterID); err == nil {
		if char, err := h.characterRepo.GetByID(ctx, characterID); err == nil {
			req.Class = char.Class
			req.Backstory = char.Backstory
		}
	}

	title, err := retry.DoWithData(ctx, func(ctx context.Context) (string, error) {
		return h.titleGen.GenerateTitle(ctx, req)
	},
		retry.WithMaxAttempts(h.config.TitleRetries+1),
		retry.WithInitialDelay(200*time.Millisecond),
		retry.WithRetryIf(func(err error) bool { return !retry.IsPermanent(err) }),
	)
	if err != nil || title == "" {
		h.logger.Warn("title generation failed, using fallback",
			"stat_id", levelUp.StatID,
			"category", levelUp.Category,
			"level", levelUp.NewLevel,
			"error", err,
		)
		return fallback, false
	}
	return title, true
}
