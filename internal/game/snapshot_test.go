package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	claimed := fixedNow.Add(-3 * time.Hour)
	s := DefaultState(fixedNow.Add(-48 * time.Hour))
	s.Balance = 123_456
	s.Followers = 321
	s.CloutLevel = 2
	s.UpgradeLevels = map[int]int{1: 12, 2: 3, 5: 50}
	s.OwnedAssets = map[string]bool{"rolex": true, "designer": true}
	s.OwnedStaff = map[string]bool{"intern": true, "quant": true}
	s.Username = "bricklayer"
	s.TotalClicks = 999
	s.TotalEarned = 50_000
	s.HighestBalance = 200_000
	s.TotalSpent = 70_000
	s.TotalPrestiges = 2
	s.TotalSecondsPlayed = 3600
	s.DailyStreak = 4
	s.LastDailyClaimAt = &claimed
	s.AchievementsClaimed = []string{"first-click", "investor"}
	s.LastOnlineAt = fixedNow
	s.UncollectedOffline = 900

	raw, err := EncodeSnapshot(s)
	require.NoError(t, err)

	got, err := Reconcile(raw, DefaultState(fixedNow))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestReconcileEmptyUsesDefaults(t *testing.T) {
	defaults := DefaultState(fixedNow)
	got, err := Reconcile(nil, defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, got)

	got, err = Reconcile([]byte(`{"bux": 42, "somethingNew": {"x": 1}}`), defaults)
	require.NoError(t, err)
	require.EqualValues(t, 42, got.Balance)
	require.Equal(t, DefaultFollowers, got.Followers)
	require.Equal(t, fixedNow, got.StartedAt)
	require.NotNil(t, got.UpgradeLevels)
}

func TestReconcileLegacyLayout(t *testing.T) {
	raw := []byte(`{
		"bux": 5000.7,
		"followers": 10,
		"upgrades": {"1": 3, "2": 0, "9": 4},
		"items": {"rolex": 1, "designer": 0, "lambo": 1},
		"staff": {"intern": 1, "ghost": 1},
		"clout": 2,
		"username": "alice",
		"totalTimePlayed": 99,
		"lastDailyClaim": null,
		"achievementsUnlocked": ["first-click"],
		"achievementsClaimed": ["first-click"],
		"lastOnline": "2025-02-28T10:00:00.000Z",
		"taskLastReset": "2025-02-28T10:00:00.000Z"
	}`)
	got, err := Reconcile(raw, DefaultState(fixedNow))
	require.NoError(t, err)

	require.EqualValues(t, 5000, got.Balance)
	require.EqualValues(t, 5000, got.HighestBalance)
	require.EqualValues(t, 10, got.Followers)
	require.Equal(t, map[int]int{1: 3}, got.UpgradeLevels)
	// lambo is dropped because designer is missing from the chain.
	require.Equal(t, map[string]bool{"rolex": true}, got.OwnedAssets)
	require.Equal(t, map[string]bool{"intern": true}, got.OwnedStaff)
	require.EqualValues(t, 2, got.CloutLevel)
	require.Equal(t, "alice", got.Username)
	require.EqualValues(t, 99, got.TotalSecondsPlayed)
	require.Nil(t, got.LastDailyClaimAt)
	require.Equal(t, []string{"first-click"}, got.AchievementsClaimed)
	require.Equal(t, time.Date(2025, time.February, 28, 10, 0, 0, 0, time.UTC), got.LastOnlineAt)
	require.Equal(t, fixedNow, got.StartedAt)
}

func TestReconcileRejectsNewerVersion(t *testing.T) {
	_, err := Reconcile([]byte(`{"version": 9}`), DefaultState(fixedNow))
	require.Error(t, err)

	_, err = Reconcile([]byte(`{not json`), DefaultState(fixedNow))
	require.Error(t, err)
}

func TestEngineSnapshotReloads(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 1000 })
	require.NoError(t, e.BuyUpgrade(1))
	_, err := e.Click()
	require.NoError(t, err)

	raw, err := e.Snapshot()
	require.NoError(t, err)
	got, err := Reconcile(raw, DefaultState(fixedNow))
	require.NoError(t, err)
	require.Equal(t, e.State(), got)
}
