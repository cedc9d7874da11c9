package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClaimDailyCycle(t *testing.T) {
	e, clk := newTestEngine(t, nil)

	var total int64
	for day := 1; day <= len(DailyRewards); day++ {
		reward, err := e.ClaimDaily(clk.Now())
		require.NoError(t, err)
		require.Equal(t, DailyRewards[day-1], reward)
		require.Equal(t, day, e.State().DailyStreak)
		total += reward

		_, err = e.ClaimDaily(clk.Now().Add(time.Hour))
		require.ErrorIs(t, err, ErrDailyCooldown)
		clk.Advance(DailyCooldown)
	}
	require.Equal(t, total, e.State().Balance)

	reward, err := e.ClaimDaily(clk.Now())
	require.NoError(t, err)
	require.EqualValues(t, 100, reward)
	require.Equal(t, 1, e.State().DailyStreak)
}

func TestClaimDailyStreakResetsAfterGap(t *testing.T) {
	e, clk := newTestEngine(t, nil)
	_, err := e.ClaimDaily(clk.Now())
	require.NoError(t, err)
	clk.Advance(DailyCooldown)
	_, err = e.ClaimDaily(clk.Now())
	require.NoError(t, err)
	require.Equal(t, 2, e.State().DailyStreak)

	clk.Advance(DailyStreakReset)
	view := e.Daily(clk.Now())
	require.True(t, view.CanClaim)
	require.Zero(t, view.Streak)
	require.Equal(t, 1, view.NextDay)

	reward, err := e.ClaimDaily(clk.Now())
	require.NoError(t, err)
	require.EqualValues(t, 100, reward)
	require.Equal(t, 1, e.State().DailyStreak)
}

func TestDailyViewCooldown(t *testing.T) {
	e, clk := newTestEngine(t, nil)
	_, err := e.ClaimDaily(clk.Now())
	require.NoError(t, err)

	view := e.Daily(clk.Now().Add(19 * time.Hour))
	require.False(t, view.CanClaim)
	require.Equal(t, time.Hour, view.ReadyIn)
	require.EqualValues(t, 250, view.Reward)
}
