package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lifequest/lifequest-hub/internal/application/command"
	"github.com/lifequest/lifequest-hub/internal/application/query"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	info := map[string]interface{}{
		"name":    "LifeQuest Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":     "/health",
			"register":   "/api/v1/users",
			"characters": "/api/v1/characters",
			"dashboard":  "/api/v1/characters/{id}/dashboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleAdminStatus reports server state for operators.
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":        s.IsRunning(),
		"uptime_seconds": s.Uptime().Seconds(),
		"address":        s.Address(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT & CHARACTER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegisterUser handles POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterUserHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Registration not configured")
		return
	}

	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := s.deps.RegisterUserHandler.Handle(r.Context(), command.RegisterUserCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		s.writeCommandError(w, r, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleCreateCharacter handles POST /api/v1/characters
func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateCharacterHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Character creation not configured")
		return
	}

	var req struct {
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		Class     string `json:"class"`
		Backstory string `json:"backstory"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := s.deps.CreateCharacterHandler.Handle(r.Context(), command.CreateCharacterCommand{
		UserID:    req.UserID,
		Name:      req.Name,
		Class:     req.Class,
		Backstory: req.Backstory,
	})
	if err != nil {
		s.writeCommandError(w, r, "create character", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetCharacterSheet handles GET /api/v1/characters/{id}
func (s *Server) handleGetCharacterSheet(w http.ResponseWriter, r *http.Request) {
	characterID := r.PathValue("id")
	if characterID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Character ID is required")
		return
	}

	if s.deps.GetCharacterSheetHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Sheet handler not configured")
		return
	}

	result, err := s.deps.GetCharacterSheetHandler.Handle(r.Context(), query.GetCharacterSheetQuery{
		CharacterID: characterID,
	})
	if err != nil {
		s.writeCommandError(w, r, "get character sheet", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetDashboard handles GET /api/v1/characters/{id}/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	characterID := r.PathValue("id")

	if s.deps.GetDashboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboard handler not configured")
		return
	}

	result, err := s.deps.GetDashboardHandler.Handle(r.Context(), query.GetDashboardQuery{
		CharacterID: characterID,
	})
	if err != nil {
		s.writeCommandError(w, r, "get dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetStatProgress handles GET /api/v1/characters/{id}/stats/{category}
func (s *Server) handleGetStatProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStatProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stat handler not configured")
		return
	}

	result, err := s.deps.GetStatProgressHandler.Handle(r.Context(), query.GetStatProgressQuery{
		CharacterID: r.PathValue("id"),
		Category:    r.PathValue("category"),
	})
	if err != nil {
		s.writeCommandError(w, r, "get stat progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAwardXP handles POST /api/v1/characters/{id}/award-xp
func (s *Server) handleAwardXP(w http.ResponseWriter, r *http.Request) {
	if s.deps.AwardXPHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Award handler not configured")
		return
	}

	var req struct {
		Category string `json:"category"`
		Delta    int    `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := s.deps.AwardXPHandler.Handle(r.Context(), command.AwardXPCommand{
		CharacterID:   r.PathValue("id"),
		Category:      req.Category,
		Delta:         req.Delta,
		Source:        command.SourceManual,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeCommandError(w, r, "award xp", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// levelUpResponse is the wire shape of a level-up outcome.
type levelUpResponse struct {
	OldLevel         int    `json:"oldLevel"`
	NewLevel         int    `json:"newLevel"`
	LevelsGained     int    `json:"levelsGained"`
	LevelProgression []int  `json:"levelProgression"`
	TotalXP          int    `json:"totalXp"`
	LevelTitle       string `json:"levelTitle"`
}

// handleLevelUpStat handles POST /api/v1/characters/{id}/stats/{category}/level-up
func (s *Server) handleLevelUpStat(w http.ResponseWriter, r *http.Request) {
	if s.deps.LevelUpStatHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Level-up handler not configured")
		return
	}

	result, err := s.deps.LevelUpStatHandler.Handle(r.Context(), command.LevelUpStatCommand{
		CharacterID:   r.PathValue("id"),
		Category:      r.PathValue("category"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeCommandError(w, r, "level up stat", err)
		return
	}

	writeJSON(w, http.StatusOK, levelUpResponse{
		OldLevel:         result.OldLevel,
		NewLevel:         result.NewLevel,
		LevelsGained:     result.LevelsGained,
		LevelProgression: result.LevelProgression,
		TotalXP:          result.TotalXP,
		LevelTitle:       result.LevelTitle,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListTasks handles GET /api/v1/characters/{id}/tasks
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListTasksHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task handler not configured")
		return
	}

	result, err := s.deps.ListTasksHandler.Handle(r.Context(), query.ListTasksQuery{
		CharacterID: r.PathValue("id"),
		Status:      getQueryParam(r, "status", ""),
		Limit:       getQueryParamInt(r, "limit", 50),
	})
	if err != nil {
		s.writeCommandError(w, r, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCreateTask handles POST /api/v1/characters/{id}/tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateTaskHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task handler not configured")
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Difficulty  string `json:"difficulty"`
		Category    string `json:"category"`
		Rewards     []struct {
			Category string `json:"category"`
			XP       int    `json:"xp"`
		} `json:"rewards"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	cmd := command.CreateTaskCommand{
		CharacterID:     r.PathValue("id"),
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		DefaultCategory: req.Category,
	}
	for _, reward := range req.Rewards {
		cmd.Rewards = append(cmd.Rewards, command.RewardInput{
			Category: reward.Category,
			XP:       reward.XP,
		})
	}

	result, err := s.deps.CreateTaskHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleCompleteTask handles POST /api/v1/characters/{id}/tasks/{taskID}/complete
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteTaskHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task handler not configured")
		return
	}

	result, err := s.deps.CompleteTaskHandler.Handle(r.Context(), command.CompleteTaskCommand{
		TaskID:        r.PathValue("taskID"),
		CharacterID:   r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeCommandError(w, r, "complete task", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListJournalEntries handles GET /api/v1/characters/{id}/journal
func (s *Server) handleListJournalEntries(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListJournalEntriesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Journal handler not configured")
		return
	}

	result, err := s.deps.ListJournalEntriesHandler.Handle(r.Context(), query.ListJournalEntriesQuery{
		CharacterID: r.PathValue("id"),
		Limit:       getQueryParamInt(r, "limit", 20),
	})
	if err != nil {
		s.writeCommandError(w, r, "list journal entries", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRecordJournalEntry handles POST /api/v1/characters/{id}/journal
func (s *Server) handleRecordJournalEntry(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordJournalEntryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Journal handler not configured")
		return
	}

	var req struct {
		Body string `json:"body"`
		Mood string `json:"mood"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := s.deps.RecordJournalEntryHandler.Handle(r.Context(), command.RecordJournalEntryCommand{
		CharacterID:   r.PathValue("id"),
		Body:          req.Body,
		Mood:          req.Mood,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeCommandError(w, r, "record journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeCommandError maps domain errors to HTTP status codes.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsValidation(err), errors.Is(err, shared.ErrEmptyValue):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrAlreadyProcessed):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", "The resource was modified concurrently, please retry")
	default:
		s.logger.Error("request failed",
			logger.String("op", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}
