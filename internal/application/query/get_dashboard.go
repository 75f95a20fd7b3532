package query

import (
	"context"
	"fmt"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// TaskView is a task's display shape.
type TaskView struct {
	TaskID        string     `json:"task_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Difficulty    string     `json:"difficulty"`
	Status        string     `json:"status"`
	SuggestedByAI bool       `json:"suggested_by_ai"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// EntryView is a journal entry's display shape.
type EntryView struct {
	EntryID    string                   `json:"entry_id"`
	Body       string                   `json:"body"`
	Mood       string                   `json:"mood,omitempty"`
	Summary    string                   `json:"summary,omitempty"`
	XPAwarded  int                      `json:"xp_awarded"`
	Weather    *journal.WeatherSnapshot `json:"weather,omitempty"`
	RecordedAt time.Time                `json:"recorded_at"`
}

// Dashboard is the landing-page shape: sheet, open tasks, recent entries and
// current weather.
type Dashboard struct {
	Sheet         *CharacterSheet          `json:"sheet"`
	PendingTasks  []TaskView               `json:"pending_tasks"`
	RecentEntries []EntryView              `json:"recent_entries"`
	Weather       *journal.WeatherSnapshot `json:"weather,omitempty"`
}

// DashboardWeather provides current conditions for the dashboard. Failures
// degrade to absent weather.
type DashboardWeather interface {
	Snapshot(ctx context.Context) (*journal.WeatherSnapshot, error)
}

// GetDashboardQuery identifies the character.
type GetDashboardQuery struct {
	CharacterID string
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	sheetHandler *GetCharacterSheetHandler
	taskRepo     task.Repository
	journalRepo  journal.Repository
	weather      DashboardWeather

	taskLimit  int
	entryLimit int
}

// NewGetDashboardHandler creates a new GetDashboardHandler. weather may be nil.
func NewGetDashboardHandler(
	sheetHandler *GetCharacterSheetHandler,
	taskRepo task.Repository,
	journalRepo journal.Repository,
	weather DashboardWeather,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		sheetHandler: sheetHandler,
		taskRepo:     taskRepo,
		journalRepo:  journalRepo,
		weather:      weather,
		taskLimit:    10,
		entryLimit:   5,
	}
}

// Handle assembles the dashboard.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*Dashboard, error) {
	sheet, err := h.sheetHandler.Handle(ctx, GetCharacterSheetQuery{CharacterID: q.CharacterID})
	if err != nil {
		return nil, err
	}

	characterID := shared.CharacterID(sheet.CharacterID)

	tasks, err := h.taskRepo.ListByCharacter(ctx, characterID, task.StatusPending, h.taskLimit)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to list tasks: %w", err)
	}
	entries, err := h.journalRepo.ListByCharacter(ctx, characterID, h.entryLimit)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to list entries: %w", err)
	}

	dashboard := &Dashboard{Sheet: sheet}
	for _, t := range tasks {
		dashboard.PendingTasks = append(dashboard.PendingTasks, NewTaskView(t))
	}
	for _, e := range entries {
		dashboard.RecentEntries = append(dashboard.RecentEntries, NewEntryView(e))
	}

	if h.weather != nil {
		weatherCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if snapshot, err := h.weather.Snapshot(weatherCtx); err == nil {
			dashboard.Weather = snapshot
		}
	}

	return dashboard, nil
}

// NewTaskView builds a task's display shape.
func NewTaskView(t *task.Task) TaskView {
	return TaskView{
		TaskID:        t.ID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Difficulty:    string(t.Difficulty),
		Status:        string(t.Status),
		SuggestedByAI: t.SuggestedByAI,
		CompletedAt:   t.CompletedAt,
	}
}

// NewEntryView builds a journal entry's display shape.
func NewEntryView(e *journal.Entry) EntryView {
	view := EntryView{
		EntryID:    e.ID.String(),
		Body:       e.Body,
		Mood:       string(e.Mood),
		Weather:    e.Weather,
		RecordedAt: e.RecordedAt,
	}
	if e.Analysis != nil {
		view.Summary = e.Analysis.Summary
		view.XPAwarded = e.Analysis.TotalXP().Int()
	}
	return view
}
