package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD JOURNAL ENTRY COMMAND
// Stores a journal entry, decorates it with the current weather, runs the
// LLM analysis and pays out the resulting per-stat XP. Weather and analysis
// are both best-effort: the entry is always stored, and a malformed or
// failed analysis simply awards nothing.
// ══════════════════════════════════════════════════════════════════════════════

// EntryAnalyzer turns an entry's text into per-stat XP awards. Implementations
// must return an error for malformed model output; they never guess.
type EntryAnalyzer interface {
	AnalyzeEntry(ctx context.Context, body string, mood journal.Mood) (journal.Analysis, error)
}

// WeatherProvider captures current conditions for journal context.
type WeatherProvider interface {
	Snapshot(ctx context.Context) (*journal.WeatherSnapshot, error)
}

// RecordJournalEntryCommand contains the entry data.
type RecordJournalEntryCommand struct {
	// CharacterID - the character journaling.
	CharacterID string

	// Body - the entry text.
	Body string

	// Mood - optional self-reported mood.
	Mood string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordJournalEntryCommand) Validate() error {
	if c.CharacterID == "" {
		return fmt.Errorf("record_journal_entry: character_id is required: %w", shared.ErrValidation)
	}
	if c.Body == "" {
		return shared.ErrEmptyEntry
	}
	return nil
}

// RecordJournalEntryResult contains the stored entry and its payout.
type RecordJournalEntryResult struct {
	EntryID  string
	Analyzed bool
	Summary  string
	Awards   []StatAwardOutcome
	TotalXP  int
	Weather  *journal.WeatherSnapshot
}

// RecordJournalEntryHandlerConfig contains configuration for the handler.
type RecordJournalEntryHandlerConfig struct {
	// AnalysisTimeout bounds the LLM call.
	AnalysisTimeout time.Duration

	// WeatherTimeout bounds the weather lookup.
	WeatherTimeout time.Duration
}

// DefaultRecordJournalEntryHandlerConfig returns default configuration.
func DefaultRecordJournalEntryHandlerConfig() RecordJournalEntryHandlerConfig {
	return RecordJournalEntryHandlerConfig{
		AnalysisTimeout: 20 * time.Second,
		WeatherTimeout:  3 * time.Second,
	}
}

// RecordJournalEntryHandler handles the RecordJournalEntryCommand.
type RecordJournalEntryHandler struct {
	journalRepo  journal.Repository
	awardHandler *AwardXPHandler
	analyzer     EntryAnalyzer
	weather      WeatherProvider
	publisher    shared.EventPublisher
	logger       *slog.Logger
	config       RecordJournalEntryHandlerConfig
}

// NewRecordJournalEntryHandler creates a new RecordJournalEntryHandler.
// analyzer and weather may be nil; the entry is then stored without analysis
// or weather context.
func NewRecordJournalEntryHandler(
	journalRepo journal.Repository,
	awardHandler *AwardXPHandler,
	analyzer EntryAnalyzer,
	weather WeatherProvider,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RecordJournalEntryHandlerConfig,
) *RecordJournalEntryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.AnalysisTimeout == 0 {
		config = DefaultRecordJournalEntryHandlerConfig()
	}
	return &RecordJournalEntryHandler{
		journalRepo:  journalRepo,
		awardHandler: awardHandler,
		analyzer:     analyzer,
		weather:      weather,
		publisher:    publisher,
		logger:       logger.With("handler", "record_journal_entry"),
		config:       config,
	}
}

// Handle executes the command.
func (h *RecordJournalEntryHandler) Handle(ctx context.Context, cmd RecordJournalEntryCommand) (*RecordJournalEntryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	characterID, err := shared.NewCharacterID(cmd.CharacterID)
	if err != nil {
		return nil, err
	}

	entry, err := journal.New(characterID, cmd.Body, journal.Mood(cmd.Mood), h.fetchWeather(ctx))
	if err != nil {
		return nil, err
	}

	h.analyze(ctx, entry)

	if err := h.journalRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record_journal_entry: failed to store entry: %w", err)
	}

	result := &RecordJournalEntryResult{
		EntryID: entry.ID.String(),
		Weather: entry.Weather,
	}

	if entry.Analysis != nil {
		result.Analyzed = true
		result.Summary = entry.Analysis.Summary
		for _, award := range entry.Analysis.Awards {
			outcome, err := h.awardHandler.Handle(ctx, AwardXPCommand{
				CharacterID:   cmd.CharacterID,
				Category:      award.Category.String(),
				Delta:         award.XP.Int(),
				Source:        SourceJournal,
				SourceID:      entry.ID.String(),
				CorrelationID: cmd.CorrelationID,
			})
			if err != nil {
				h.logger.Error("journal XP award failed",
					"entry_id", entry.ID.String(),
					"category", award.Category.String(),
					"error", err,
				)
				continue
			}
			result.Awards = append(result.Awards, StatAwardOutcome{
				Category:     outcome.Category,
				XPAwarded:    award.XP.Int(),
				NewLevel:     outcome.NewLevel,
				LeveledUp:    outcome.LeveledUp,
				LevelsGained: outcome.LevelsGained,
			})
			result.TotalXP += award.XP.Int()
		}
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(journal.NewEntryRecordedEvent(entry))
	}

	return result, nil
}

// fetchWeather grabs current conditions, tolerating any failure.
func (h *RecordJournalEntryHandler) fetchWeather(ctx context.Context) *journal.WeatherSnapshot {
	if h.weather == nil {
		return nil
	}
	weatherCtx, cancel := context.WithTimeout(ctx, h.config.WeatherTimeout)
	defer cancel()

	snapshot, err := h.weather.Snapshot(weatherCtx)
	if err != nil {
		h.logger.Debug("weather lookup failed", "error", err)
		return nil
	}
	return snapshot
}

// analyze runs the LLM analysis and attaches the result when it validates.
// Malformed output is mapped to "no analysis" instead of propagating into
// the XP-commit path.
func (h *RecordJournalEntryHandler) analyze(ctx context.Context, entry *journal.Entry) {
	if h.analyzer == nil {
		return
	}
	analysisCtx, cancel := context.WithTimeout(ctx, h.config.AnalysisTimeout)
	defer cancel()

	analysis, err := h.analyzer.AnalyzeEntry(analysisCtx, entry.Body, entry.Mood)
	if err != nil {
		h.logger.Warn("journal analysis failed", "entry_id", entry.ID.String(), "error", err)
		return
	}
	if err := entry.AttachAnalysis(analysis); err != nil {
		h.logger.Warn("journal analysis rejected", "entry_id", entry.ID.String(), "error", err)
	}
}
