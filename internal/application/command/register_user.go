package command

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/user"
)

// RegisterUserCommand contains the data to register an account.
type RegisterUserCommand struct {
	Email       string
	DisplayName string
	Password    string
}

// RegisterUserResult contains the created account.
type RegisterUserResult struct {
	UserID      string
	Email       string
	DisplayName string
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo       user.Repository
	eventPublisher shared.EventPublisher
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(userRepo user.Repository, eventPublisher shared.EventPublisher) *RegisterUserHandler {
	return &RegisterUserHandler{
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the registration.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	u, err := user.New(cmd.Email, cmd.DisplayName, cmd.Password)
	if err != nil {
		return nil, err
	}

	if existing, err := h.userRepo.GetByEmail(ctx, u.Email); err == nil && existing != nil {
		return nil, shared.ErrUserAlreadyExists
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register_user: failed to create user: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(user.NewUserRegisteredEvent(u))
	}

	return &RegisterUserResult{
		UserID:      u.ID.String(),
		Email:       u.Email.String(),
		DisplayName: u.DisplayName,
	}, nil
}
