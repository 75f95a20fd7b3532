package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/application/command"
	"github.com/lifequest/lifequest-hub/internal/application/query"
	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeCharacterRepo struct {
	characters map[shared.CharacterID]*character.Character
	stats      map[shared.CharacterID]map[shared.StatCategory]*character.StatProgress
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{
		characters: make(map[shared.CharacterID]*character.Character),
		stats:      make(map[shared.CharacterID]map[shared.StatCategory]*character.StatProgress),
	}
}

func (r *fakeCharacterRepo) Create(ctx context.Context, c *character.Character) error {
	r.characters[c.ID] = c
	return nil
}

func (r *fakeCharacterRepo) GetByID(ctx context.Context, id shared.CharacterID) (*character.Character, error) {
	c, ok := r.characters[id]
	if !ok {
		return nil, shared.ErrCharacterNotFound
	}
	return c, nil
}

func (r *fakeCharacterRepo) GetByUserID(ctx context.Context, userID shared.UserID) (*character.Character, error) {
	for _, c := range r.characters {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, shared.ErrCharacterNotFound
}

func (r *fakeCharacterRepo) GetStat(ctx context.Context, id shared.StatID) (*character.StatProgress, error) {
	for _, byCategory := range r.stats {
		for _, s := range byCategory {
			if s.ID == id {
				return s, nil
			}
		}
	}
	return nil, shared.ErrStatNotFound
}

func (r *fakeCharacterRepo) GetStatByCategory(ctx context.Context, characterID shared.CharacterID, category shared.StatCategory) (*character.StatProgress, error) {
	if s, ok := r.stats[characterID][category]; ok {
		return s, nil
	}
	return nil, shared.ErrStatNotFound
}

func (r *fakeCharacterRepo) ListStats(ctx context.Context, characterID shared.CharacterID) ([]*character.StatProgress, error) {
	var out []*character.StatProgress
	for _, s := range r.stats[characterID] {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeCharacterRepo) UpdateStatProgress(ctx context.Context, stat *character.StatProgress) error {
	return nil
}

func (r *fakeCharacterRepo) UpdateStatTitle(ctx context.Context, id shared.StatID, level shared.Level, title string) error {
	return nil
}

func (r *fakeCharacterRepo) ListCharacterIDs(ctx context.Context) ([]shared.CharacterID, error) {
	var ids []shared.CharacterID
	for id := range r.characters {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeTaskRepo struct {
	tasks map[shared.TaskID]*task.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[shared.TaskID]*task.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *task.Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id shared.TaskID) (*task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, shared.ErrTaskNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) ListByCharacter(ctx context.Context, characterID shared.CharacterID, status task.Status, limit int) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.CharacterID == characterID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, t *task.Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) CountPendingSuggested(ctx context.Context, characterID shared.CharacterID) (int, error) {
	return 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

const testCharacterID = "11111111-1111-1111-1111-111111111111"

func seedCharacter(repo *fakeCharacterRepo) shared.CharacterID {
	id := shared.CharacterID(testCharacterID)
	repo.characters[id] = &character.Character{
		ID:    id,
		Name:  "Aria",
		Class: "Ranger",
	}
	repo.stats[id] = map[shared.StatCategory]*character.StatProgress{
		shared.CategoryPhysical: {
			ID:           shared.StatID("stat-physical"),
			CharacterID:  id,
			Category:     shared.CategoryPhysical,
			TotalXP:      150,
			CurrentXP:    150,
			CurrentLevel: 1,
			Version:      1,
		},
	}
	return id
}

func newTestServer(charRepo *fakeCharacterRepo, taskRepo *fakeTaskRepo) *Server {
	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.APIKeys = []string{"admin-secret"}

	awardHandler := command.NewAwardXPHandler(charRepo, nil, nil)

	return NewServer(config, Dependencies{
		AwardXPHandler:      awardHandler,
		LevelUpStatHandler:  command.NewLevelUpStatHandler(charRepo, nil, nil, nil, command.DefaultLevelUpStatHandlerConfig()),
		CreateTaskHandler:   command.NewCreateTaskHandler(taskRepo, charRepo),
		CompleteTaskHandler: command.NewCompleteTaskHandler(taskRepo, awardHandler, nil),
		ListTasksHandler:    query.NewListTasksHandler(taskRepo),
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var env JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(newFakeCharacterRepo(), newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(newFakeCharacterRepo(), newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLevelUp_ResponseShape(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/stats/physical/level-up", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Success bool            `json:"success"`
		Data    levelUpResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Data.OldLevel)
	assert.Equal(t, 2, env.Data.NewLevel)
	assert.Equal(t, 1, env.Data.LevelsGained)
	assert.Equal(t, []int{2}, env.Data.LevelProgression)
	assert.Equal(t, 150, env.Data.TotalXP)
	assert.NotEmpty(t, env.Data.LevelTitle)

	// the wire shape uses the documented camelCase keys
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["data"], &data))
	for _, key := range []string{"oldLevel", "newLevel", "levelsGained", "levelProgression", "totalXp", "levelTitle"} {
		assert.Contains(t, data, key)
	}
}

func TestLevelUp_NotReady(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	id := seedCharacter(charRepo)
	charRepo.stats[id][shared.CategoryPhysical].TotalXP = 50
	charRepo.stats[id][shared.CategoryPhysical].CurrentXP = 50
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/stats/physical/level-up", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_state", env.Error.Code)
}

func TestAwardXP(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/award-xp",
		map[string]interface{}{"category": "physical", "delta": 25})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAwardXP_UnknownCategory(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/award-xp",
		map[string]interface{}{"category": "charisma", "delta": 25})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAwardXP_UnknownBodyFieldRejected(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/award-xp",
		map[string]interface{}{"category": "physical", "delta": 25, "bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndCompleteTask(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	taskRepo := newFakeTaskRepo()
	s := newTestServer(charRepo, taskRepo)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/characters/"+testCharacterID+"/tasks",
		map[string]interface{}{"title": "Morning run", "difficulty": "easy", "category": "physical"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data command.CreateTaskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.TaskID)

	rec = doRequest(t, s, http.MethodPost,
		"/api/v1/characters/"+testCharacterID+"/tasks/"+created.Data.TaskID+"/complete", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// completing twice conflicts
	rec = doRequest(t, s, http.MethodPost,
		"/api/v1/characters/"+testCharacterID+"/tasks/"+created.Data.TaskID+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteTask_NotFound(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodPost,
		"/api/v1/characters/"+testCharacterID+"/tasks/no-such-task/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks_InvalidStatus(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	seedCharacter(charRepo)
	s := newTestServer(charRepo, newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodGet, "/api/v1/characters/"+testCharacterID+"/tasks?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminStatus_RequiresAPIKey(t *testing.T) {
	s := newTestServer(newFakeCharacterRepo(), newFakeTaskRepo())

	rec := doRequest(t, s, http.MethodGet, "/admin/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req.Header.Set("X-API-Key", "admin-secret")
	authed := httptest.NewRecorder()
	s.Handler().ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestAdminStatus_DisabledWithoutKeys(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.APIKeys = nil
	s := NewServer(config, Dependencies{})

	rec := doRequest(t, s, http.MethodGet, "/admin/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotImplementedWhenHandlerMissing(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	s := NewServer(config, Dependencies{})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/users",
		map[string]interface{}{"email": "a@example.com", "display_name": "A", "password": "longenough1"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 2
	s := NewServer(config, Dependencies{})

	for i := 0; i < 2; i++ {
		rec := doRequest(t, s, http.MethodGet, "/live", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, s, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
