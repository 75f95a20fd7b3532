// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// UserID represents a unique user account identifier (UUID format).
type UserID string

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// CharacterID represents a unique character identifier (UUID format).
type CharacterID string

// IsValid checks if the character ID is a valid UUID.
func (c CharacterID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CharacterID) String() string {
	return string(c)
}

// IsEmpty checks if the ID is empty.
func (c CharacterID) IsEmpty() bool {
	return c == ""
}

// NewCharacterID creates a new CharacterID with validation.
func NewCharacterID(id string) (CharacterID, error) {
	cid := CharacterID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCharacterID", ErrInvalidID, "invalid character ID format")
	}
	return cid, nil
}

// StatID represents a unique stat row identifier (UUID format).
type StatID string

// IsValid checks if the stat ID is a valid UUID.
func (s StatID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StatID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StatID) IsEmpty() bool {
	return s == ""
}

// NewStatID creates a new StatID with validation.
func NewStatID(id string) (StatID, error) {
	sid := StatID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStatID", ErrInvalidID, "invalid stat ID format")
	}
	return sid, nil
}

// TaskID represents a unique task identifier (UUID format).
type TaskID string

// IsValid checks if the task ID is a valid UUID.
func (t TaskID) IsValid() bool {
	return uuidRegex.MatchString(string(t))
}

// String returns the string representation.
func (t TaskID) String() string {
	return string(t)
}

// EntryID represents a unique journal entry identifier (UUID format).
type EntryID string

// IsValid checks if the entry ID is a valid UUID.
func (e EntryID) IsValid() bool {
	return uuidRegex.MatchString(string(e))
}

// String returns the string representation.
func (e EntryID) String() string {
	return string(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points accumulated by a character stat.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 10000000 // 10 million XP cap per stat
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP and floored at MinXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	if result < MinXP {
		return MinXP
	}
	return result
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a stat's level.
type Level int

// MinLevel is the starting level for every stat. Levels are unbounded
// upward; only the XP cap limits how far the curve can be climbed.
const MinLevel Level = 1

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// NewLevel creates a new Level with validation.
func NewLevel(value int) (Level, error) {
	if value < int(MinLevel) {
		return 0, NewDomainError("shared", "NewLevel", ErrValueOutOfRange, "level must be at least 1")
	}
	return Level(value), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Stat Category Value Object
// ═══════════════════════════════════════════════════════════════════════════

// StatCategory identifies which aspect of the character a stat tracks.
type StatCategory string

const (
	CategoryPhysical StatCategory = "physical"
	CategoryMental   StatCategory = "mental"
	CategorySocial   StatCategory = "social"
	CategoryCraft    StatCategory = "craft"
	CategorySpirit   StatCategory = "spirit"
	CategoryWealth   StatCategory = "wealth"
)

// AllCategories returns every valid stat category, in display order.
func AllCategories() []StatCategory {
	return []StatCategory{
		CategoryPhysical,
		CategoryMental,
		CategorySocial,
		CategoryCraft,
		CategorySpirit,
		CategoryWealth,
	}
}

// IsValid checks if the category is one of the known set.
func (c StatCategory) IsValid() bool {
	switch c {
	case CategoryPhysical, CategoryMental, CategorySocial,
		CategoryCraft, CategorySpirit, CategoryWealth:
		return true
	}
	return false
}

// String returns the string representation.
func (c StatCategory) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category.
func (c StatCategory) DisplayName() string {
	switch c {
	case CategoryPhysical:
		return "Physical Health"
	case CategoryMental:
		return "Mental Clarity"
	case CategorySocial:
		return "Social Bonds"
	case CategoryCraft:
		return "Craftsmanship"
	case CategorySpirit:
		return "Spirit"
	case CategoryWealth:
		return "Wealth"
	default:
		return string(c)
	}
}

// NewStatCategory creates a new StatCategory with validation.
func NewStatCategory(value string) (StatCategory, error) {
	c := StatCategory(strings.ToLower(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", NewDomainError("shared", "NewStatCategory", ErrInvalidInput, "unknown stat category")
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a user's email address.
type Email string

// Deliberately loose: real validation happens when mail is actually sent.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email has a plausible format.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a normalized (lowercase, trimmed) version.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a new Email with validation.
func NewEmail(value string) (Email, error) {
	e := Email(value).Normalize()
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e, nil
}
