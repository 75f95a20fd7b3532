// Package user contains the account aggregate. Only registration lives here;
// session handling is out of scope for this service.
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// User is a registered account.
type User struct {
	// ID - unique account identifier.
	ID shared.UserID

	// Email - normalized login email.
	Email shared.Email

	// DisplayName - name shown in the UI.
	DisplayName string

	// PasswordHash - bcrypt hash of the password.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a user with a bcrypt-hashed password.
func New(email, displayName, password string) (*User, error) {
	normalized, err := shared.NewEmail(email)
	if err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError("user", "New", shared.ErrEmptyValue, "display name is required")
	}
	if len(password) < MinPasswordLength {
		return nil, shared.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.WrapError("user", "New", shared.ErrInvalidInput, "failed to hash password", err)
	}

	now := time.Now().UTC()
	return &User{
		ID:           shared.UserID(uuid.New().String()),
		Email:        normalized,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserRegisteredEvent is emitted when a new account registers.
type UserRegisteredEvent struct {
	shared.BaseEvent
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Payload implements shared.Event.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"email":        e.Email,
		"display_name": e.DisplayName,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(u *User) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventUserRegistered, u.ID.String()),
		UserID:      u.ID.String(),
		Email:       u.Email.String(),
		DisplayName: u.DisplayName,
	}
}
