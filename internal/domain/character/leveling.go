// Package character contains the character aggregate: an RPG-style avatar of
// the user whose named stats accrue XP from completed tasks and journal
// entries and level up along a deterministic curve.
package character

import (
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELING CURVE
//
// The cost of going from level n to level n+1 is 100*n XP, so the cumulative
// threshold for level n is 50*n*(n-1):
//
//	level 1 → 0 XP, level 2 → 100, level 3 → 300, level 4 → 600, ...
//
// Strictly increasing in level, with level 1 reachable at 0 XP.
// ══════════════════════════════════════════════════════════════════════════════

// levelStepCost returns the XP needed to climb from level n to n+1.
func levelStepCost(n shared.Level) int {
	return 100 * int(n)
}

// TotalXPForLevel returns the cumulative XP threshold at which level is reached.
// The threshold for level 1 is 0. Fails fast on levels below 1.
func TotalXPForLevel(level shared.Level) (shared.XP, error) {
	if !level.IsValid() {
		return 0, shared.NewDomainError("character", "TotalXPForLevel", shared.ErrValueOutOfRange, "level must be at least 1")
	}
	n := int(level)
	return shared.XP(50 * n * (n - 1)), nil
}

// LevelFromTotalXP returns the largest level whose threshold is at or below
// totalXP. Zero XP maps to level 1. Fails fast on negative XP.
func LevelFromTotalXP(totalXP shared.XP) (shared.Level, error) {
	if totalXP < shared.MinXP {
		return 0, shared.NewDomainError("character", "LevelFromTotalXP", shared.ErrNegativeValue, "total XP cannot be negative")
	}

	level := shared.MinLevel
	accumulated := 0
	for accumulated+levelStepCost(level) <= int(totalXP) {
		accumulated += levelStepCost(level)
		level++
	}
	return level, nil
}

// IsReadyToLevelUp reports whether totalXP has crossed the threshold for a
// level above currentLevel. Pure predicate, no side effects.
func IsReadyToLevelUp(totalXP shared.XP, currentLevel shared.Level) (bool, error) {
	if !currentLevel.IsValid() {
		return false, shared.NewDomainError("character", "IsReadyToLevelUp", shared.ErrValueOutOfRange, "level must be at least 1")
	}
	earned, err := LevelFromTotalXP(totalXP)
	if err != nil {
		return false, err
	}
	return earned > currentLevel, nil
}

// ProgressReport describes where a stat sits inside its current level.
type ProgressReport struct {
	// CurrentLevelXP is the cumulative threshold of the current level.
	CurrentLevelXP shared.XP

	// XPInCurrentLevel is how much XP has been earned past that threshold.
	XPInCurrentLevel shared.XP

	// ProgressPercent is progress toward the next level, clamped to [0,100].
	ProgressPercent float64
}

// XPProgress computes progress within the current level. Callers must pass a
// settled snapshot: a stale currentLevel yields a negative XPInCurrentLevel,
// which is reported as-is rather than guessed around.
func XPProgress(totalXP shared.XP, currentLevel shared.Level) (ProgressReport, error) {
	if totalXP < shared.MinXP {
		return ProgressReport{}, shared.NewDomainError("character", "XPProgress", shared.ErrNegativeValue, "total XP cannot be negative")
	}
	currentLevelXP, err := TotalXPForLevel(currentLevel)
	if err != nil {
		return ProgressReport{}, err
	}
	nextLevelXP, err := TotalXPForLevel(currentLevel + 1)
	if err != nil {
		return ProgressReport{}, err
	}

	xpInLevel := int(totalXP) - int(currentLevelXP)
	span := int(nextLevelXP) - int(currentLevelXP)

	percent := float64(xpInLevel) / float64(span) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return ProgressReport{
		CurrentLevelXP:   currentLevelXP,
		XPInCurrentLevel: shared.XP(xpInLevel),
		ProgressPercent:  percent,
	}, nil
}

// XPToNextLevel returns how much XP is still needed to reach the next level,
// floored at 0 when the threshold has already been crossed.
func XPToNextLevel(totalXP shared.XP, currentLevel shared.Level) (shared.XP, error) {
	if totalXP < shared.MinXP {
		return 0, shared.NewDomainError("character", "XPToNextLevel", shared.ErrNegativeValue, "total XP cannot be negative")
	}
	nextLevelXP, err := TotalXPForLevel(currentLevel + 1)
	if err != nil {
		return 0, err
	}
	remaining := int(nextLevelXP) - int(totalXP)
	if remaining < 0 {
		remaining = 0
	}
	return shared.XP(remaining), nil
}

// LevelUpRewards describes the outcome of a level-up transition.
type LevelUpRewards struct {
	// NewLevel is the level the stat has earned.
	NewLevel shared.Level

	// LevelsGained is how many levels were crossed (always >= 1).
	LevelsGained int

	// LevelProgression lists every level passed through, in order, starting
	// at currentLevel+1 and ending at NewLevel. A single large award can
	// cross several thresholds at once.
	LevelProgression []shared.Level
}

// CalculateLevelUpRewards computes the transition for a stat whose totalXP has
// outgrown currentLevel. Calling it when IsReadyToLevelUp is false is a
// contract violation and fails loudly.
func CalculateLevelUpRewards(totalXP shared.XP, currentLevel shared.Level) (LevelUpRewards, error) {
	if !currentLevel.IsValid() {
		return LevelUpRewards{}, shared.NewDomainError("character", "CalculateLevelUpRewards", shared.ErrValueOutOfRange, "level must be at least 1")
	}
	newLevel, err := LevelFromTotalXP(totalXP)
	if err != nil {
		return LevelUpRewards{}, err
	}
	if newLevel <= currentLevel {
		return LevelUpRewards{}, shared.ErrNotReadyToLevelUp
	}

	progression := make([]shared.Level, 0, int(newLevel-currentLevel))
	for l := currentLevel + 1; l <= newLevel; l++ {
		progression = append(progression, l)
	}

	return LevelUpRewards{
		NewLevel:         newLevel,
		LevelsGained:     int(newLevel - currentLevel),
		LevelProgression: progression,
	}, nil
}

// Snapshot is the persisted progress state of a single stat, as read from and
// written back to storage by the caller.
type Snapshot struct {
	TotalXP      shared.XP
	CurrentXP    shared.XP
	CurrentLevel shared.Level
}

// AwardResult is the new state after an XP award has been applied.
type AwardResult struct {
	Snapshot

	// LeveledUp is true when the award crossed at least one threshold.
	LeveledUp bool

	// LevelsGained is how many levels were crossed (0 when LeveledUp is false).
	LevelsGained int
}

// ApplyXPAward adds delta XP to the snapshot and settles any level transition
// so that CurrentLevel always equals LevelFromTotalXP(TotalXP) on return.
// Negative deltas are rejected: XP loss is not modeled and TotalXP stays
// monotonic for the lifetime of a stat. Persisting the result is the
// caller's responsibility.
func ApplyXPAward(snapshot Snapshot, delta shared.XP) (AwardResult, error) {
	if delta < 0 {
		return AwardResult{}, shared.ErrNegativeXPDelta
	}
	if snapshot.TotalXP < shared.MinXP {
		return AwardResult{}, shared.NewDomainError("character", "ApplyXPAward", shared.ErrNegativeValue, "total XP cannot be negative")
	}
	if !snapshot.CurrentLevel.IsValid() {
		return AwardResult{}, shared.NewDomainError("character", "ApplyXPAward", shared.ErrValueOutOfRange, "level must be at least 1")
	}

	newTotal := snapshot.TotalXP.Add(int(delta))
	newLevel, err := LevelFromTotalXP(newTotal)
	if err != nil {
		return AwardResult{}, err
	}

	result := AwardResult{
		Snapshot: Snapshot{
			TotalXP:      newTotal,
			CurrentLevel: snapshot.CurrentLevel,
		},
	}

	if newLevel > snapshot.CurrentLevel {
		threshold, err := TotalXPForLevel(newLevel)
		if err != nil {
			return AwardResult{}, err
		}
		result.CurrentLevel = newLevel
		result.CurrentXP = newTotal - threshold
		result.LeveledUp = true
		result.LevelsGained = int(newLevel - snapshot.CurrentLevel)
	} else {
		result.CurrentXP = snapshot.CurrentXP + delta
	}

	return result, nil
}
