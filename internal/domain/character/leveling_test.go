package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

func TestTotalXPForLevel_Thresholds(t *testing.T) {
	cases := []struct {
		level shared.Level
		want  shared.XP
	}{
		{1, 0},
		{2, 100},
		{3, 300},
		{4, 600},
		{5, 1000},
		{10, 4500},
	}
	for _, tc := range cases {
		got, err := TotalXPForLevel(tc.level)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "level %d", tc.level)
	}
}

func TestTotalXPForLevel_StrictlyIncreasing(t *testing.T) {
	prev, err := TotalXPForLevel(1)
	require.NoError(t, err)

	for level := shared.Level(2); level <= 200; level++ {
		cur, err := TotalXPForLevel(level)
		require.NoError(t, err)
		assert.Greater(t, cur, prev, "threshold must grow at level %d", level)
		prev = cur
	}
}

func TestTotalXPForLevel_RejectsInvalidLevel(t *testing.T) {
	for _, level := range []shared.Level{0, -1, -50} {
		_, err := TotalXPForLevel(level)
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	}
}

func TestLevelFromTotalXP_InverseOfThresholds(t *testing.T) {
	for total := shared.XP(0); total <= 5000; total += 37 {
		level, err := LevelFromTotalXP(total)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, level, shared.MinLevel)

		atLevel, err := TotalXPForLevel(level)
		require.NoError(t, err)
		atNext, err := TotalXPForLevel(level + 1)
		require.NoError(t, err)

		assert.LessOrEqual(t, atLevel, total)
		assert.Greater(t, atNext, total)
	}
}

func TestLevelFromTotalXP_ExactThresholdReachesLevel(t *testing.T) {
	for level := shared.Level(1); level <= 50; level++ {
		threshold, err := TotalXPForLevel(level)
		require.NoError(t, err)

		got, err := LevelFromTotalXP(threshold)
		require.NoError(t, err)
		assert.Equal(t, level, got)

		if threshold > 0 {
			below, err := LevelFromTotalXP(threshold - 1)
			require.NoError(t, err)
			assert.Equal(t, level-1, below)
		}
	}
}

func TestLevelFromTotalXP_ZeroIsLevelOne(t *testing.T) {
	level, err := LevelFromTotalXP(0)
	require.NoError(t, err)
	assert.Equal(t, shared.MinLevel, level)
}

func TestLevelFromTotalXP_RejectsNegative(t *testing.T) {
	_, err := LevelFromTotalXP(-1)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}

func TestIsReadyToLevelUp(t *testing.T) {
	ready, err := IsReadyToLevelUp(99, 1)
	require.NoError(t, err)
	assert.False(t, ready)

	ready, err = IsReadyToLevelUp(100, 1)
	require.NoError(t, err)
	assert.True(t, ready)

	// Settled state is never ready.
	ready, err = IsReadyToLevelUp(100, 2)
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = IsReadyToLevelUp(100, 0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestXPProgress(t *testing.T) {
	// Level 2 spans [100, 300): 50 XP into it is 25%.
	report, err := XPProgress(150, 2)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(100), report.CurrentLevelXP)
	assert.Equal(t, shared.XP(50), report.XPInCurrentLevel)
	assert.InDelta(t, 25.0, report.ProgressPercent, 0.001)

	// At the exact threshold, progress is 0%.
	report, err = XPProgress(100, 2)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(0), report.XPInCurrentLevel)
	assert.Zero(t, report.ProgressPercent)

	// Percent is clamped even when the snapshot is stale.
	report, err = XPProgress(10000, 2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.ProgressPercent)
}

func TestXPToNextLevel(t *testing.T) {
	// Round trip against the threshold table.
	for level := shared.Level(1); level <= 20; level++ {
		threshold, err := TotalXPForLevel(level)
		require.NoError(t, err)
		next, err := TotalXPForLevel(level + 1)
		require.NoError(t, err)

		got, err := XPToNextLevel(threshold, level)
		require.NoError(t, err)
		assert.Equal(t, next-threshold, got)
	}

	// Floored at zero once the threshold is crossed.
	got, err := XPToNextLevel(5000, 2)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(0), got)
}

func TestCalculateLevelUpRewards_SingleLevel(t *testing.T) {
	rewards, err := CalculateLevelUpRewards(150, 1)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(2), rewards.NewLevel)
	assert.Equal(t, 1, rewards.LevelsGained)
	assert.Equal(t, []shared.Level{2}, rewards.LevelProgression)
}

func TestCalculateLevelUpRewards_MultiLevelJump(t *testing.T) {
	// 600 XP from zero crosses levels 2, 3 and 4 in one award.
	rewards, err := CalculateLevelUpRewards(600, 1)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(4), rewards.NewLevel)
	assert.Equal(t, 3, rewards.LevelsGained)
	assert.Equal(t, []shared.Level{2, 3, 4}, rewards.LevelProgression)
	assert.Len(t, rewards.LevelProgression, rewards.LevelsGained)
}

func TestCalculateLevelUpRewards_NotReadyFailsLoudly(t *testing.T) {
	_, err := CalculateLevelUpRewards(50, 1)
	assert.ErrorIs(t, err, shared.ErrNotReadyToLevelUp)

	_, err = CalculateLevelUpRewards(100, 2)
	assert.ErrorIs(t, err, shared.ErrNotReadyToLevelUp)
}

func TestApplyXPAward_NoThresholdCrossed(t *testing.T) {
	result, err := ApplyXPAward(Snapshot{TotalXP: 20, CurrentXP: 20, CurrentLevel: 1}, 30)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(50), result.TotalXP)
	assert.Equal(t, shared.XP(50), result.CurrentXP)
	assert.Equal(t, shared.Level(1), result.CurrentLevel)
	assert.False(t, result.LeveledUp)
	assert.Zero(t, result.LevelsGained)
}

func TestApplyXPAward_LevelUp(t *testing.T) {
	// Level 1 with 0 XP, +110: crosses the 100 XP threshold for level 2
	// with 10 XP spilling into the new level.
	before := Snapshot{TotalXP: 0, CurrentXP: 0, CurrentLevel: 1}

	ready, err := IsReadyToLevelUp(before.TotalXP+110, before.CurrentLevel)
	require.NoError(t, err)
	assert.True(t, ready)

	result, err := ApplyXPAward(before, 110)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(110), result.TotalXP)
	assert.Equal(t, shared.Level(2), result.CurrentLevel)
	assert.Equal(t, shared.XP(10), result.CurrentXP)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 1, result.LevelsGained)

	// Settled: no longer ready.
	ready, err = IsReadyToLevelUp(result.TotalXP, result.CurrentLevel)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestApplyXPAward_MultiLevelJump(t *testing.T) {
	result, err := ApplyXPAward(Snapshot{TotalXP: 0, CurrentXP: 0, CurrentLevel: 1}, 650)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(4), result.CurrentLevel)
	assert.Equal(t, shared.XP(50), result.CurrentXP)
	assert.Equal(t, 3, result.LevelsGained)
}

func TestApplyXPAward_ZeroDeltaIsIdempotent(t *testing.T) {
	before := Snapshot{TotalXP: 250, CurrentXP: 150, CurrentLevel: 2}
	result, err := ApplyXPAward(before, 0)
	require.NoError(t, err)
	assert.Equal(t, before, result.Snapshot)
	assert.False(t, result.LeveledUp)
}

func TestApplyXPAward_RejectsNegativeDelta(t *testing.T) {
	_, err := ApplyXPAward(Snapshot{TotalXP: 100, CurrentXP: 0, CurrentLevel: 2}, -10)
	assert.ErrorIs(t, err, shared.ErrNegativeXPDelta)
}

func TestApplyXPAward_InvariantHolds(t *testing.T) {
	// After any award, the stored level always matches the level computed
	// from total XP and current XP is the distance past the threshold.
	snapshot := Snapshot{TotalXP: 0, CurrentXP: 0, CurrentLevel: 1}
	deltas := []shared.XP{10, 0, 95, 300, 7, 1200, 44, 9999}

	for _, delta := range deltas {
		result, err := ApplyXPAward(snapshot, delta)
		require.NoError(t, err)

		wantLevel, err := LevelFromTotalXP(result.TotalXP)
		require.NoError(t, err)
		assert.Equal(t, wantLevel, result.CurrentLevel)

		threshold, err := TotalXPForLevel(result.CurrentLevel)
		require.NoError(t, err)
		assert.Equal(t, result.TotalXP-threshold, result.CurrentXP)

		snapshot = result.Snapshot
	}
}

func TestStatProgress_AwardMutatesEntity(t *testing.T) {
	stat := NewStatProgress("c1", shared.CategoryPhysical)
	assert.Equal(t, shared.MinLevel, stat.CurrentLevel)
	assert.Equal(t, shared.XP(0), stat.TotalXP)

	result, err := stat.Award(120)
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, shared.Level(2), stat.CurrentLevel)
	assert.Equal(t, shared.XP(120), stat.TotalXP)
	assert.Equal(t, shared.XP(20), stat.CurrentXP)
}
