package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLaunchCost(t *testing.T) {
	tests := map[int64]int64{
		0:           500,
		499_999:     500,
		1_000_000:   1000,
		49_999_999:  49_999,
		100_000_000: 50_000,
	}
	for balance, want := range tests {
		require.Equal(t, want, LaunchCost(balance), "balance=%d", balance)
	}
}

func TestWealthTier(t *testing.T) {
	tests := map[int64]int{
		0:         1,
		9_999:     1,
		10_000:    2,
		99_999:    2,
		100_000:   3,
		999_999:   3,
		1_000_000: 5,
	}
	for balance, want := range tests {
		require.Equal(t, want, WealthTier(balance), "balance=%d", balance)
	}
}

func TestLaunchLuck(t *testing.T) {
	s := DefaultState(fixedNow)
	require.InDelta(t, 0.02, LaunchLuck(s, 1), 1e-9)
	s.OwnedStaff["quant"] = true
	s.OwnedStaff["cex"] = true
	s.OwnedStaff["intern"] = true
	require.InDelta(t, 0.25, LaunchLuck(s, 5), 1e-9)
}

func TestStartLaunch(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 100 })
	require.ErrorIs(t, e.StartLaunch("MoonInu", "$MOON"), ErrInsufficientFunds)
	require.Equal(t, LaunchDraft, e.Launch().Phase)

	e, _ = newTestEngine(t, func(s *PlayerState) { s.Balance = 20_000 })
	require.ErrorIs(t, e.StartLaunch("  ", ""), ErrLaunchName)

	draft := e.Launch()
	require.Equal(t, 2, draft.Tier)
	require.EqualValues(t, 500, draft.Cost)

	require.NoError(t, e.StartLaunch("MoonInu", "$MOON"))
	live := e.Launch()
	require.Equal(t, LaunchLive, live.Phase)
	require.Equal(t, 2, live.Tier)
	require.InDelta(t, 10_000.0, live.Price, 1e-9)
	require.Equal(t, []float64{10_000}, live.Chart)
	require.EqualValues(t, 19_500, e.State().Balance)
	require.EqualValues(t, 500, e.State().TotalSpent)

	require.ErrorIs(t, e.StartLaunch("Again", ""), ErrLaunchState)
}

func TestStepLaunchKeepsChartWindow(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 20_000 })
	require.NoError(t, e.StartLaunch("BrickToken", "$BRICK"))

	for i := 0; i < 200; i++ {
		resolved, err := e.StepLaunch()
		require.NoError(t, err)
		v := e.Launch()
		require.LessOrEqual(t, len(v.Chart), LaunchChartPoints)
		require.GreaterOrEqual(t, v.Price, LaunchPriceFloor)
		if resolved {
			require.Equal(t, LaunchResolved, v.Phase)
			require.Equal(t, OutcomeBoundary, v.Outcome)
			return
		}
	}
	_, err := e.SellLaunch()
	require.NoError(t, err)
}

func TestStepLaunchResolvesAtLowerBoundary(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) {
		s.Balance = 20_000
		s.Followers = 100
	})
	require.NoError(t, e.StartLaunch("RugPull", "$RUG"))
	e.launch.price = LaunchPriceFloor

	resolved, err := e.StepLaunch()
	require.NoError(t, err)
	require.True(t, resolved)

	v := e.Launch()
	require.Equal(t, LaunchResolved, v.Phase)
	require.Equal(t, OutcomeBoundary, v.Outcome)
	require.Positive(t, v.Payout)
	require.EqualValues(t, 110, e.State().Followers)
	require.EqualValues(t, 19_500+v.Payout, e.State().Balance)

	_, err = e.StepLaunch()
	require.ErrorIs(t, err, ErrLaunchState)
}

func TestStepLaunchResolvesAtUpperBoundary(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 20_000 })
	require.NoError(t, e.StartLaunch("SafeMars", "$SAFE"))
	e.launch.price = 5_000_000

	resolved, err := e.StepLaunch()
	require.NoError(t, err)
	require.True(t, resolved)
	require.Equal(t, OutcomeBoundary, e.Launch().Outcome)
}

func TestSellAndRug(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) {
		s.Balance = 20_000
		s.Followers = 100
	})
	require.NoError(t, e.StartLaunch("HODL", "$HODL"))
	e.launch.devBag = 1000

	payout, err := e.RugLaunch()
	require.NoError(t, err)
	require.EqualValues(t, 1000, payout)
	require.EqualValues(t, 90, e.State().Followers)
	require.EqualValues(t, 20_500, e.State().Balance)
	require.Equal(t, OutcomeRugged, e.Launch().Outcome)

	require.NoError(t, e.ResetLaunch())
	require.Equal(t, LaunchDraft, e.Launch().Phase)
	require.ErrorIs(t, e.ResetLaunch(), ErrLaunchState)

	require.NoError(t, e.StartLaunch("WAGMI", "$WAGMI"))
	e.launch.devBag = 0
	payout, err = e.SellLaunch()
	require.NoError(t, err)
	require.Zero(t, payout)
	require.EqualValues(t, 90, e.State().Followers)
}

func TestRugNeverDropsFollowersBelowOne(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 1000 })
	require.NoError(t, e.StartLaunch("NGMI", "$NGMI"))
	e.launch.devBag = 10
	_, err := e.RugLaunch()
	require.NoError(t, err)
	require.Equal(t, DefaultFollowers, e.State().Followers)
}

func TestLaunchTierUsesBalanceBeforeEntryCost(t *testing.T) {
	e, _ := newTestEngine(t, func(s *PlayerState) { s.Balance = 10_200 })
	require.NoError(t, e.StartLaunch("Brick Coin", "BRK"))
	require.EqualValues(t, 9_700, e.State().Balance)

	view := e.Launch()
	require.Equal(t, 2, view.Tier)
	require.InDelta(t, 10_000, view.Price, 1e-9)

	_, _ = e.StepLaunch()
	require.Equal(t, 2, e.Launch().Tier)
}
