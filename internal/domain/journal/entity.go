// Package journal contains the journal aggregate: free-text entries that are
// analyzed by the LLM into per-stat XP awards.
package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Mood is the user's self-reported mood for an entry.
type Mood string

const (
	MoodGreat   Mood = "great"
	MoodGood    Mood = "good"
	MoodNeutral Mood = "neutral"
	MoodLow     Mood = "low"
	MoodRough   Mood = "rough"
)

// IsValid checks if the mood is one of the known set. Empty is allowed.
func (m Mood) IsValid() bool {
	switch m {
	case "", MoodGreat, MoodGood, MoodNeutral, MoodLow, MoodRough:
		return true
	}
	return false
}

// WeatherSnapshot is the conditions at the time of writing, captured for
// context. Absent when the weather service was unavailable.
type WeatherSnapshot struct {
	Summary    string  `json:"summary"`
	TempC      float64 `json:"temp_c"`
	CapturedAt string  `json:"captured_at"`
}

// StatAward is one stat's XP share from an analyzed entry.
type StatAward struct {
	Category shared.StatCategory `json:"category"`
	XP       shared.XP           `json:"xp"`
}

// Analysis is the strict-parsed result of running an entry through the LLM.
type Analysis struct {
	// Summary - one-line recap of the entry.
	Summary string `json:"summary"`

	// Awards - per-stat XP the entry earned.
	Awards []StatAward `json:"awards"`
}

// TotalXP sums the analysis awards.
func (a Analysis) TotalXP() shared.XP {
	var total shared.XP
	for _, award := range a.Awards {
		total += award.XP
	}
	return total
}

// Entry is a single journal entry.
type Entry struct {
	// ID - unique entry identifier.
	ID shared.EntryID

	// CharacterID - the character this entry belongs to.
	CharacterID shared.CharacterID

	// Body - the entry text.
	Body string

	// Mood - optional self-reported mood.
	Mood Mood

	// Weather - optional conditions at writing time.
	Weather *WeatherSnapshot

	// Analysis - set once the LLM analysis succeeds; nil when analysis
	// failed or produced garbage (the entry itself is still kept).
	Analysis *Analysis

	RecordedAt time.Time
	CreatedAt  time.Time
}

// New creates a journal entry.
func New(characterID shared.CharacterID, body string, mood Mood, weather *WeatherSnapshot) (*Entry, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.ErrEmptyEntry
	}
	if !mood.IsValid() {
		return nil, shared.NewDomainError("journal", "New", shared.ErrInvalidInput, "unknown mood")
	}

	now := time.Now().UTC()
	return &Entry{
		ID:          shared.EntryID(uuid.New().String()),
		CharacterID: characterID,
		Body:        body,
		Mood:        mood,
		Weather:     weather,
		RecordedAt:  now,
		CreatedAt:   now,
	}, nil
}

// AttachAnalysis validates and attaches an analysis result. Awards with
// unknown categories or negative XP mark the whole analysis as garbage so a
// half-valid LLM response never reaches the XP-commit path.
func (e *Entry) AttachAnalysis(a Analysis) error {
	for _, award := range a.Awards {
		if !award.Category.IsValid() {
			return shared.ErrInvalidStatCategory
		}
		if award.XP < 0 {
			return shared.NewDomainError("journal", "AttachAnalysis", shared.ErrNegativeValue, "analysis award cannot be negative")
		}
	}
	e.Analysis = &a
	return nil
}

// EntryRecordedEvent is emitted when a journal entry is stored.
type EntryRecordedEvent struct {
	shared.BaseEvent
	EntryID     string `json:"entry_id"`
	CharacterID string `json:"character_id"`
	Mood        string `json:"mood,omitempty"`
	Analyzed    bool   `json:"analyzed"`
	XPAwarded   int    `json:"xp_awarded"`
}

// Payload implements shared.Event.
func (e EntryRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entry_id":     e.EntryID,
		"character_id": e.CharacterID,
		"mood":         e.Mood,
		"analyzed":     e.Analyzed,
		"xp_awarded":   e.XPAwarded,
	}
}

// NewEntryRecordedEvent creates a new EntryRecordedEvent.
func NewEntryRecordedEvent(entry *Entry) EntryRecordedEvent {
	ev := EntryRecordedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventEntryRecorded, entry.ID.String()),
		EntryID:     entry.ID.String(),
		CharacterID: entry.CharacterID.String(),
		Mood:        string(entry.Mood),
	}
	if entry.Analysis != nil {
		ev.Analyzed = true
		ev.XPAwarded = entry.Analysis.TotalXP().Int()
	}
	return ev
}
