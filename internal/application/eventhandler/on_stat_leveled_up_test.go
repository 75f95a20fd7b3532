package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

type stubTitleGen struct {
	title    string
	err      error
	failures int // fail this many calls before succeeding

	mu    sync.Mutex
	calls int
}

func (g *stubTitleGen) GenerateTitle(_ context.Context, _ character.TitleRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if g.calls <= g.failures {
		return "", errors.New("transient failure")
	}
	return g.title, nil
}

type titleRepo struct {
	characterRepo
	mu     sync.Mutex
	titles map[shared.StatID]string
	char   *character.Character
	fail   bool
}

// characterRepo embeds unimplemented methods so titleRepo only fills in what
// the handler touches.
type characterRepo struct{}

func (characterRepo) Create(context.Context, *character.Character) error { return nil }
func (characterRepo) GetByUserID(context.Context, shared.UserID) (*character.Character, error) {
	return nil, shared.ErrCharacterNotFound
}
func (characterRepo) GetStat(context.Context, shared.StatID) (*character.StatProgress, error) {
	return nil, shared.ErrStatNotFound
}
func (characterRepo) GetStatByCategory(context.Context, shared.CharacterID, shared.StatCategory) (*character.StatProgress, error) {
	return nil, shared.ErrStatNotFound
}
func (characterRepo) ListStats(context.Context, shared.CharacterID) ([]*character.StatProgress, error) {
	return nil, nil
}
func (characterRepo) UpdateStatProgress(context.Context, *character.StatProgress) error { return nil }
func (characterRepo) ListCharacterIDs(context.Context) ([]shared.CharacterID, error)    { return nil, nil }

func (r *titleRepo) GetByID(_ context.Context, id shared.CharacterID) (*character.Character, error) {
	if r.char != nil && r.char.ID == id {
		return r.char, nil
	}
	return nil, shared.ErrCharacterNotFound
}

func (r *titleRepo) UpdateStatTitle(_ context.Context, id shared.StatID, _ shared.Level, title string) error {
	if r.fail {
		return errors.New("db down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.titles == nil {
		r.titles = make(map[shared.StatID]string)
	}
	r.titles[id] = title
	return nil
}

func newLevelUpEvent(t *testing.T) (character.StatLeveledUpEvent, *character.StatProgress) {
	t.Helper()
	stat := character.NewStatProgress("9a3e1b00-0000-4000-8000-000000000007", shared.CategoryPhysical)
	_, err := stat.Award(150)
	require.NoError(t, err)
	rewards, err := character.CalculateLevelUpRewards(stat.TotalXP, 1)
	require.NoError(t, err)
	return character.NewStatLeveledUpEvent(stat, 1, rewards), stat
}

func TestOnStatLeveledUp_GeneratedTitlePersisted(t *testing.T) {
	event, stat := newLevelUpEvent(t)
	repo := &titleRepo{}
	gen := &stubTitleGen{title: "Dawn Sprinter"}

	handler := NewOnStatLeveledUpHandler(repo, gen, nil, nil, DefaultStatLeveledUpConfig())
	require.NoError(t, handler.Handle(event))

	assert.Equal(t, "Dawn Sprinter", repo.titles[stat.ID])
}

func TestOnStatLeveledUp_FallbackOnGeneratorError(t *testing.T) {
	event, stat := newLevelUpEvent(t)
	repo := &titleRepo{}
	gen := &stubTitleGen{err: errors.New("model unavailable")}

	handler := NewOnStatLeveledUpHandler(repo, gen, nil, nil, DefaultStatLeveledUpConfig())
	require.NoError(t, handler.Handle(event))

	want := character.FallbackTitle(shared.CategoryPhysical, shared.Level(event.NewLevel))
	assert.Equal(t, want, repo.titles[stat.ID])
	assert.NotEmpty(t, repo.titles[stat.ID])
}

func TestOnStatLeveledUp_RetriesTransientFailures(t *testing.T) {
	event, stat := newLevelUpEvent(t)
	repo := &titleRepo{}
	gen := &stubTitleGen{title: "Second Wind", failures: 1}

	handler := NewOnStatLeveledUpHandler(repo, gen, nil, nil, DefaultStatLeveledUpConfig())
	require.NoError(t, handler.Handle(event))

	assert.Equal(t, "Second Wind", repo.titles[stat.ID])
	assert.Equal(t, 2, gen.calls)
}

func TestOnStatLeveledUp_NilGeneratorUsesFallback(t *testing.T) {
	event, stat := newLevelUpEvent(t)
	repo := &titleRepo{}

	handler := NewOnStatLeveledUpHandler(repo, nil, nil, nil, DefaultStatLeveledUpConfig())
	require.NoError(t, handler.Handle(event))

	assert.Contains(t, repo.titles[stat.ID], "(Level 2)")
}

func TestOnStatLeveledUp_IgnoresOtherEvents(t *testing.T) {
	repo := &titleRepo{}
	handler := NewOnStatLeveledUpHandler(repo, &stubTitleGen{title: "x"}, nil, nil, DefaultStatLeveledUpConfig())

	char, err := character.NewCharacter("2f1f3c52-0000-4000-8000-000000000001", "Asel", "Ranger", "")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(character.NewCharacterCreatedEvent(char)))
	assert.Empty(t, repo.titles)
}
