package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries map[shared.EntryID]*journal.Entry
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{entries: make(map[shared.EntryID]*journal.Entry)}
}

func (r *fakeJournalRepo) Create(_ context.Context, e *journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e
	return nil
}

func (r *fakeJournalRepo) GetByID(_ context.Context, id shared.EntryID) (*journal.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrEntryNotFound
	}
	return e, nil
}

func (r *fakeJournalRepo) ListByCharacter(_ context.Context, characterID shared.CharacterID, limit int) ([]*journal.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*journal.Entry
	for _, e := range r.entries {
		if e.CharacterID == characterID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubAnalyzer struct {
	analysis journal.Analysis
	err      error
}

func (a stubAnalyzer) AnalyzeEntry(_ context.Context, _ string, _ journal.Mood) (journal.Analysis, error) {
	return a.analysis, a.err
}

type stubWeather struct {
	snapshot *journal.WeatherSnapshot
	err      error
}

func (w stubWeather) Snapshot(_ context.Context) (*journal.WeatherSnapshot, error) {
	return w.snapshot, w.err
}

func TestRecordJournalEntry_AnalyzedAndAwarded(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	journalRepo := newFakeJournalRepo()
	bus := &capturingBus{}
	c := newTestCharacter(t, charRepo)

	analyzer := stubAnalyzer{analysis: journal.Analysis{
		Summary: "a long walk and a hard conversation",
		Awards: []journal.StatAward{
			{Category: shared.CategoryPhysical, XP: 15},
			{Category: shared.CategorySocial, XP: 20},
		},
	}}
	weather := stubWeather{snapshot: &journal.WeatherSnapshot{Summary: "Partly Cloudy", TempC: 21.5}}

	handler := NewRecordJournalEntryHandler(
		journalRepo,
		NewAwardXPHandler(charRepo, bus, nil),
		analyzer,
		weather,
		bus,
		nil,
		DefaultRecordJournalEntryHandlerConfig(),
	)

	result, err := handler.Handle(context.Background(), RecordJournalEntryCommand{
		CharacterID: c.ID.String(),
		Body:        "Walked 10km, then finally talked it out with my brother.",
		Mood:        "good",
	})
	require.NoError(t, err)

	assert.True(t, result.Analyzed)
	assert.Equal(t, 35, result.TotalXP)
	assert.Len(t, result.Awards, 2)
	require.NotNil(t, result.Weather)
	assert.Equal(t, "Partly Cloudy", result.Weather.Summary)

	social, err := charRepo.GetStatByCategory(context.Background(), c.ID, shared.CategorySocial)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(20), social.TotalXP)

	assert.Len(t, bus.byType(shared.EventEntryRecorded), 1)
}

func TestRecordJournalEntry_AnalyzerFailureStillStoresEntry(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	journalRepo := newFakeJournalRepo()
	c := newTestCharacter(t, charRepo)

	handler := NewRecordJournalEntryHandler(
		journalRepo,
		NewAwardXPHandler(charRepo, &capturingBus{}, nil),
		stubAnalyzer{err: errors.New("model unavailable")},
		nil,
		&capturingBus{},
		nil,
		DefaultRecordJournalEntryHandlerConfig(),
	)

	result, err := handler.Handle(context.Background(), RecordJournalEntryCommand{
		CharacterID: c.ID.String(),
		Body:        "just tired today",
	})
	require.NoError(t, err)

	assert.False(t, result.Analyzed)
	assert.Zero(t, result.TotalXP)

	entries, err := journalRepo.ListByCharacter(context.Background(), c.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Analysis)

	// No XP moved.
	stats, err := charRepo.ListStats(context.Background(), c.ID)
	require.NoError(t, err)
	for _, s := range stats {
		assert.Equal(t, shared.XP(0), s.TotalXP)
	}
}

func TestRecordJournalEntry_MalformedAnalysisRejected(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	journalRepo := newFakeJournalRepo()
	c := newTestCharacter(t, charRepo)

	// Unknown category marks the whole analysis invalid.
	handler := NewRecordJournalEntryHandler(
		journalRepo,
		NewAwardXPHandler(charRepo, &capturingBus{}, nil),
		stubAnalyzer{analysis: journal.Analysis{
			Awards: []journal.StatAward{{Category: "charisma", XP: 10}},
		}},
		nil,
		&capturingBus{},
		nil,
		DefaultRecordJournalEntryHandlerConfig(),
	)

	result, err := handler.Handle(context.Background(), RecordJournalEntryCommand{
		CharacterID: c.ID.String(),
		Body:        "met some new people at the climbing gym",
	})
	require.NoError(t, err)
	assert.False(t, result.Analyzed)
	assert.Zero(t, result.TotalXP)
}

func TestRecordJournalEntry_WeatherFailureTolerated(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	journalRepo := newFakeJournalRepo()
	c := newTestCharacter(t, charRepo)

	handler := NewRecordJournalEntryHandler(
		journalRepo,
		NewAwardXPHandler(charRepo, &capturingBus{}, nil),
		nil,
		stubWeather{err: errors.New("api down")},
		&capturingBus{},
		nil,
		DefaultRecordJournalEntryHandlerConfig(),
	)

	result, err := handler.Handle(context.Background(), RecordJournalEntryCommand{
		CharacterID: c.ID.String(),
		Body:        "rainy day, stayed in",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Weather)
}

func TestRecordJournalEntry_EmptyBodyRejected(t *testing.T) {
	handler := NewRecordJournalEntryHandler(
		newFakeJournalRepo(),
		NewAwardXPHandler(newFakeCharacterRepo(), &capturingBus{}, nil),
		nil, nil, nil, nil,
		DefaultRecordJournalEntryHandlerConfig(),
	)

	_, err := handler.Handle(context.Background(), RecordJournalEntryCommand{
		CharacterID: "2f1f3c52-0000-4000-8000-000000000001",
		Body:        "",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyEntry)
}
