package character

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// TitleRequest carries everything the generator needs to flavor a title.
type TitleRequest struct {
	Category  shared.StatCategory
	NewLevel  shared.Level
	Class     string
	Backstory string
}

// TitleGenerator produces a display title for a freshly reached level.
// Implementations may be slow or flaky; callers treat any error as a signal
// to fall back to FallbackTitle and must never let a failure block or roll
// back the XP/level commit.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, req TitleRequest) (string, error)
}

// Per-category rank words, indexed by level band. Deterministic so the
// fallback title for a given (category, level) pair never changes.
var fallbackRanks = map[shared.StatCategory][6]string{
	shared.CategoryPhysical: {"Couch Sprout", "Trail Walker", "Iron Novice", "Endurance Adept", "Vitality Champion", "Titan of Health"},
	shared.CategoryMental:   {"Daydreamer", "Curious Mind", "Focused Student", "Clear Thinker", "Keen Strategist", "Sage of Clarity"},
	shared.CategorySocial:   {"Wallflower", "Friendly Face", "Circle Builder", "Trusted Ally", "Community Pillar", "Voice of Many"},
	shared.CategoryCraft:    {"Tinkerer", "Apprentice Maker", "Steady Hand", "Skilled Artisan", "Master Crafter", "Legend of the Forge"},
	shared.CategorySpirit:   {"Restless Soul", "Quiet Observer", "Grounded Spirit", "Inner Voyager", "Serene Guide", "Keeper of Calm"},
	shared.CategoryWealth:   {"Penny Counter", "Budget Keeper", "Steady Saver", "Shrewd Planner", "Asset Builder", "Architect of Fortune"},
}

// fallbackBand maps a level to an index into the rank word tables.
func fallbackBand(level shared.Level) int {
	switch {
	case level < 5:
		return 0
	case level < 10:
		return 1
	case level < 20:
		return 2
	case level < 35:
		return 3
	case level < 50:
		return 4
	default:
		return 5
	}
}

// FallbackTitle returns the deterministic title used when the generator is
// unavailable or returns garbage. Keyed by category and level only.
func FallbackTitle(category shared.StatCategory, level shared.Level) string {
	ranks, ok := fallbackRanks[category]
	if !ok {
		return fmt.Sprintf("Adventurer (Level %d)", level.Int())
	}
	return fmt.Sprintf("%s (Level %d)", ranks[fallbackBand(level)], level.Int())
}
