package command

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// CreateCharacterCommand contains the data to create a character.
type CreateCharacterCommand struct {
	UserID    string
	Name      string
	Class     string
	Backstory string
}

// Validate validates the command.
func (c CreateCharacterCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("create_character: user_id is required: %w", shared.ErrValidation)
	}
	if c.Name == "" {
		return fmt.Errorf("create_character: name is required: %w", shared.ErrValidation)
	}
	return nil
}

// CreateCharacterResult contains the created character.
type CreateCharacterResult struct {
	CharacterID string
	Name        string
	Class       string
	Stats       []string // attached stat categories
}

// CreateCharacterHandler handles the CreateCharacterCommand.
type CreateCharacterHandler struct {
	characterRepo  character.Repository
	eventPublisher shared.EventPublisher
}

// NewCreateCharacterHandler creates a new CreateCharacterHandler.
func NewCreateCharacterHandler(characterRepo character.Repository, eventPublisher shared.EventPublisher) *CreateCharacterHandler {
	return &CreateCharacterHandler{
		characterRepo:  characterRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the creation. Every stat category is attached at
// level 1 / 0 XP.
func (h *CreateCharacterHandler) Handle(ctx context.Context, cmd CreateCharacterCommand) (*CreateCharacterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	if existing, err := h.characterRepo.GetByUserID(ctx, userID); err == nil && existing != nil {
		return nil, shared.ErrCharacterAlreadyExists
	}

	c, err := character.NewCharacter(userID, cmd.Name, cmd.Class, cmd.Backstory)
	if err != nil {
		return nil, err
	}

	if err := h.characterRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create_character: failed to create character: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(character.NewCharacterCreatedEvent(c))
	}

	result := &CreateCharacterResult{
		CharacterID: c.ID.String(),
		Name:        c.Name,
		Class:       c.Class,
	}
	for _, s := range c.Stats {
		result.Stats = append(result.Stats, s.Category.String())
	}
	return result, nil
}
