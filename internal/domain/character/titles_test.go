package character

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

func TestFallbackTitle_Deterministic(t *testing.T) {
	a := FallbackTitle(shared.CategoryPhysical, 7)
	b := FallbackTitle(shared.CategoryPhysical, 7)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
	assert.Contains(t, a, "(Level 7)")
}

func TestFallbackTitle_VariesByCategory(t *testing.T) {
	seen := map[string]bool{}
	for _, category := range shared.AllCategories() {
		title := FallbackTitle(category, 12)
		assert.NotEmpty(t, title)
		assert.False(t, seen[title], "title %q reused across categories", title)
		seen[title] = true
	}
}

func TestFallbackTitle_BandsProgress(t *testing.T) {
	// Spot-check that climbing far enough changes the rank word.
	low := FallbackTitle(shared.CategoryMental, 2)
	high := FallbackTitle(shared.CategoryMental, 60)
	assert.NotEqual(t, low, high)
}

func TestFallbackTitle_UnknownCategory(t *testing.T) {
	title := FallbackTitle(shared.StatCategory("luck"), 3)
	assert.Equal(t, fmt.Sprintf("Adventurer (Level %d)", 3), title)
}
