package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextBonusDelayRange(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	for i := 0; i < 500; i++ {
		d := e.NextBonusDelay()
		require.GreaterOrEqual(t, d, BonusMinDelay)
		require.LessOrEqual(t, d, BonusMaxDelay)
	}
}

func TestBonusCollect(t *testing.T) {
	e, clk := newTestEngine(t, func(s *PlayerState) { s.UpgradeLevels[4] = 1 })

	view := e.SpawnBonus(clk.Now())
	require.True(t, view.Armed)
	require.GreaterOrEqual(t, view.Multiplier, int64(BonusMinMultiplier))
	require.LessOrEqual(t, view.Multiplier, int64(BonusMaxMultiplier))
	require.EqualValues(t, 10, view.Remaining)
	require.GreaterOrEqual(t, view.Position.X, 15.0)
	require.LessOrEqual(t, view.Position.X, 85.0)
	require.GreaterOrEqual(t, view.Position.Y, 15.0)
	require.LessOrEqual(t, view.Position.Y, 45.0)

	again := e.SpawnBonus(clk.Now())
	require.Equal(t, view.Multiplier, again.Multiplier)

	clk.Advance(5 * time.Second)
	reward, err := e.CollectBonus(clk.Now())
	require.NoError(t, err)
	require.Equal(t, 100*view.Multiplier, reward)
	require.Equal(t, reward, e.State().Balance)
	require.False(t, e.Bonus(clk.Now()).Armed)

	_, err = e.CollectBonus(clk.Now())
	require.ErrorIs(t, err, ErrBonusNotArmed)
}

func TestBonusTimeout(t *testing.T) {
	e, clk := newTestEngine(t, func(s *PlayerState) { s.UpgradeLevels[4] = 1 })
	start := clk.Now()
	e.SpawnBonus(start)

	require.False(t, e.ExpireBonus(start.Add(9*time.Second)))
	require.True(t, e.ExpireBonus(start.Add(BonusWindow)))
	require.Zero(t, e.State().Balance)
	require.False(t, e.Bonus(start.Add(BonusWindow)).Armed)

	e.SpawnBonus(start)
	_, err := e.CollectBonus(start.Add(11 * time.Second))
	require.ErrorIs(t, err, ErrBonusNotArmed)
	require.Zero(t, e.State().Balance)
}
