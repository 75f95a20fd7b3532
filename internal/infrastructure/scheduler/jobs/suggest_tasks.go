// Package jobs contains the scheduled background jobs for LifeQuest Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/external/openai"
)

// TaskSuggester produces task ideas for a character. Implemented by the
// OpenAI client.
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, req openai.SuggestTasksRequest) ([]openai.TaskSuggestion, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGEST DAILY TASKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SuggestDailyTasksJob generates AI task suggestions for every character,
// targeting each character's weakest stats. Characters that already have
// enough pending suggestions are skipped.
type SuggestDailyTasksJob struct {
	characterRepo character.Repository
	taskRepo      task.Repository
	suggester     TaskSuggester
	logger        *slog.Logger
	config        SuggestDailyTasksConfig

	lastRunStats atomic.Value // *suggestRunStats
}

// SuggestDailyTasksConfig contains configuration for the job.
type SuggestDailyTasksConfig struct {
	// Enabled controls whether the job actually runs.
	Enabled bool

	// MaxPendingSuggested caps how many pending AI-suggested tasks a
	// character may accumulate before new suggestions are skipped.
	MaxPendingSuggested int

	// SuggestionsPerCharacter is how many tasks to request per character.
	SuggestionsPerCharacter int

	// WeakestStatCount is how many low-XP categories to steer the
	// suggestions toward.
	WeakestStatCount int

	// Timeout for the entire job run.
	Timeout time.Duration

	// Concurrency limits how many characters are processed in parallel.
	Concurrency int
}

// DefaultSuggestDailyTasksConfig returns sensible defaults.
func DefaultSuggestDailyTasksConfig() SuggestDailyTasksConfig {
	return SuggestDailyTasksConfig{
		Enabled:                 true,
		MaxPendingSuggested:     5,
		SuggestionsPerCharacter: 3,
		WeakestStatCount:        2,
		Timeout:                 10 * time.Minute,
		Concurrency:             4,
	}
}

// suggestRunStats tracks statistics for a single job run.
type suggestRunStats struct {
	StartedAt         time.Time
	CompletedAt       time.Time
	CharactersTotal   int
	CharactersSkipped int
	TasksCreated      int
	Failures          int
}

// NewSuggestDailyTasksJob creates the job.
func NewSuggestDailyTasksJob(
	characterRepo character.Repository,
	taskRepo task.Repository,
	suggester TaskSuggester,
	logger *slog.Logger,
	config SuggestDailyTasksConfig,
) *SuggestDailyTasksJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxPendingSuggested <= 0 {
		config.MaxPendingSuggested = 5
	}
	if config.SuggestionsPerCharacter <= 0 {
		config.SuggestionsPerCharacter = 3
	}
	if config.WeakestStatCount <= 0 {
		config.WeakestStatCount = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}

	return &SuggestDailyTasksJob{
		characterRepo: characterRepo,
		taskRepo:      taskRepo,
		suggester:     suggester,
		logger:        logger.With("job", "suggest_daily_tasks"),
		config:        config,
	}
}

// Name returns the job name.
func (j *SuggestDailyTasksJob) Name() string {
	return "suggest_daily_tasks"
}

// Description returns a human-readable description.
func (j *SuggestDailyTasksJob) Description() string {
	return "Generates AI task suggestions targeting each character's weakest stats"
}

// Run executes the job.
func (j *SuggestDailyTasksJob) Run(ctx context.Context) error {
	if !j.config.Enabled {
		j.logger.Info("job is disabled, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &suggestRunStats{StartedAt: time.Now()}
	defer func() {
		stats.CompletedAt = time.Now()
		j.lastRunStats.Store(stats)
	}()

	ids, err := j.characterRepo.ListCharacterIDs(ctx)
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}
	stats.CharactersTotal = len(ids)

	j.logger.Info("suggestion run started", "characters", len(ids))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, j.config.Concurrency)
	)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(characterID shared.CharacterID) {
			defer wg.Done()
			defer func() { <-sem }()

			created, skipped, err := j.suggestForCharacter(ctx, characterID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failures++
				j.logger.Error("suggestion failed",
					"character_id", characterID,
					"error", err,
				)
			case skipped:
				stats.CharactersSkipped++
			default:
				stats.TasksCreated += created
			}
		}(id)
	}

	wg.Wait()

	j.logger.Info("suggestion run completed",
		"characters", stats.CharactersTotal,
		"skipped", stats.CharactersSkipped,
		"tasks_created", stats.TasksCreated,
		"failures", stats.Failures,
		"duration", time.Since(stats.StartedAt).String(),
	)

	if stats.Failures > 0 {
		return fmt.Errorf("suggestion run finished with %d failures", stats.Failures)
	}
	return nil
}

// suggestForCharacter generates and stores suggestions for one character.
// Returns the number of tasks created and whether the character was skipped.
func (j *SuggestDailyTasksJob) suggestForCharacter(ctx context.Context, characterID shared.CharacterID) (int, bool, error) {
	pending, err := j.taskRepo.CountPendingSuggested(ctx, characterID)
	if err != nil {
		return 0, false, fmt.Errorf("count pending suggestions: %w", err)
	}
	if pending >= j.config.MaxPendingSuggested {
		return 0, true, nil
	}

	char, err := j.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return 0, false, fmt.Errorf("load character: %w", err)
	}

	weakest := weakestCategories(char.Stats, j.config.WeakestStatCount)

	count := j.config.SuggestionsPerCharacter
	if remaining := j.config.MaxPendingSuggested - pending; remaining < count {
		count = remaining
	}

	suggestions, err := j.suggester.SuggestTasks(ctx, openai.SuggestTasksRequest{
		Class:             char.Class,
		Backstory:         char.Backstory,
		WeakestCategories: weakest,
		Count:             count,
	})
	if err != nil {
		return 0, false, fmt.Errorf("suggest tasks: %w", err)
	}
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}

	created := 0
	for _, s := range suggestions {
		rewards := []task.Reward{{Category: s.Category, XP: s.Difficulty.BaseXP()}}
		t, err := task.New(characterID, s.Title, s.Description, s.Difficulty, rewards)
		if err != nil {
			j.logger.Warn("discarding invalid suggestion",
				"character_id", characterID,
				"title", s.Title,
				"error", err,
			)
			continue
		}
		t.MarkSuggested()

		if err := j.taskRepo.Create(ctx, t); err != nil {
			return created, false, fmt.Errorf("store suggested task: %w", err)
		}
		created++
	}

	return created, false, nil
}

// weakestCategories returns the n categories with the lowest total XP.
func weakestCategories(stats []*character.StatProgress, n int) []shared.StatCategory {
	sorted := make([]*character.StatProgress, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, k int) bool {
		return sorted[i].TotalXP < sorted[k].TotalXP
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	categories := make([]shared.StatCategory, 0, n)
	for _, s := range sorted[:n] {
		categories = append(categories, s.Category)
	}
	return categories
}

// LastRunStats returns statistics from the most recent run, or nil.
func (j *SuggestDailyTasksJob) LastRunStats() *suggestRunStats {
	if v := j.lastRunStats.Load(); v != nil {
		return v.(*suggestRunStats)
	}
	return nil
}
