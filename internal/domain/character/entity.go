package character

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHARACTER AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Character is the user's avatar. Each character owns one StatProgress row per
// attached stat category; XP and levels live on the stats, not the character.
type Character struct {
	// ID - unique character identifier.
	ID shared.CharacterID

	// UserID - the account that owns this character (one character per user).
	UserID shared.UserID

	// Name - display name chosen by the user.
	Name string

	// Class - RPG flavor class, e.g. "Ranger", "Scholar". Free-form.
	Class string

	// Backstory - optional flavor text, fed to the title generator.
	Backstory string

	// Stats - progress rows for attached stat categories.
	Stats []*StatProgress

	// CreatedAt / UpdatedAt - bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCharacter creates a character for a user with all stat categories
// attached at level 1 / 0 XP.
func NewCharacter(userID shared.UserID, name, class, backstory string) (*Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("character", "New", shared.ErrEmptyValue, "character name is required")
	}
	if userID.IsEmpty() {
		return nil, shared.NewDomainError("character", "New", shared.ErrInvalidID, "user ID is required")
	}

	now := time.Now().UTC()
	c := &Character{
		ID:        shared.CharacterID(uuid.New().String()),
		UserID:    userID,
		Name:      name,
		Class:     strings.TrimSpace(class),
		Backstory: strings.TrimSpace(backstory),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, category := range shared.AllCategories() {
		c.Stats = append(c.Stats, NewStatProgress(c.ID, category))
	}

	return c, nil
}

// Stat returns the progress row for the given category, or nil.
func (c *Character) Stat(category shared.StatCategory) *StatProgress {
	for _, s := range c.Stats {
		if s.Category == category {
			return s
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STAT PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// StatProgress is one stat's XP/level state. It is mutated exclusively through
// Award and AssignTitle and persisted externally; Version backs the
// persistence layer's compare-and-swap so concurrent awards to the same row
// are serialized.
type StatProgress struct {
	// ID - unique stat row identifier.
	ID shared.StatID

	// CharacterID - owning character.
	CharacterID shared.CharacterID

	// Category - which aspect of the character this stat tracks.
	Category shared.StatCategory

	// TotalXP - cumulative XP ever earned; monotonically non-decreasing.
	TotalXP shared.XP

	// CurrentXP - XP earned since the most recent level-up.
	CurrentXP shared.XP

	// CurrentLevel - starts at 1, only ever increases.
	CurrentLevel shared.Level

	// LevelTitle - flavor title set on level-up; empty until the first one.
	LevelTitle string

	// Version - optimistic lock counter, bumped by the repository on write.
	Version int

	// CreatedAt / UpdatedAt - bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStatProgress creates a fresh stat at level 1 with 0 XP.
func NewStatProgress(characterID shared.CharacterID, category shared.StatCategory) *StatProgress {
	now := time.Now().UTC()
	return &StatProgress{
		ID:           shared.StatID(uuid.New().String()),
		CharacterID:  characterID,
		Category:     category,
		TotalXP:      0,
		CurrentXP:    0,
		CurrentLevel: shared.MinLevel,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Snapshot returns the engine-facing view of this stat.
func (s *StatProgress) Snapshot() Snapshot {
	return Snapshot{
		TotalXP:      s.TotalXP,
		CurrentXP:    s.CurrentXP,
		CurrentLevel: s.CurrentLevel,
	}
}

// Award applies an XP delta to this stat, settling any level transition.
// The returned result mirrors the mutated fields.
func (s *StatProgress) Award(delta shared.XP) (AwardResult, error) {
	result, err := ApplyXPAward(s.Snapshot(), delta)
	if err != nil {
		return AwardResult{}, err
	}

	s.TotalXP = result.TotalXP
	s.CurrentXP = result.CurrentXP
	s.CurrentLevel = result.CurrentLevel
	s.UpdatedAt = time.Now().UTC()
	return result, nil
}

// AssignTitle attaches a level title. Titles are flavor only; an empty title
// is ignored so a failed generation never clears an existing one.
func (s *StatProgress) AssignTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	s.LevelTitle = title
	s.UpdatedAt = time.Now().UTC()
}

// Progress returns the position of this stat inside its current level.
func (s *StatProgress) Progress() (ProgressReport, error) {
	return XPProgress(s.TotalXP, s.CurrentLevel)
}
