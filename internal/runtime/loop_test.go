package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bricks/internal/clock"
	"bricks/internal/game"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type memPersister struct {
	mu     sync.Mutex
	local  [][]byte
	remote []game.PlayerState
}

func (m *memPersister) SaveLocal(raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.local = append(m.local, raw)
	return nil
}

func (m *memPersister) SyncRemote(_ context.Context, st game.PlayerState, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote = append(m.remote, st)
	return nil
}

func (m *memPersister) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.local), len(m.remote)
}

func (m *memPersister) lastLocal() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local[len(m.local)-1]
}

func newEngine(clk clock.Clock, mutate func(*game.PlayerState)) *game.Engine {
	st := game.DefaultState(testNow)
	st.Username = "tester"
	if mutate != nil {
		mutate(&st)
	}
	return game.NewEngine(st, game.Options{Clock: clk})
}

func startLoop(t *testing.T, l *Loop) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return cancel, errc
}

func TestDoRunsOnLoop(t *testing.T) {
	l := New(newEngine(clock.NewFake(testNow), nil), Options{DisableBonus: true, TickEvery: time.Hour, LaunchStepEvery: time.Hour})
	cancel, errc := startLoop(t, l)

	ctx := context.Background()
	var clicked int64
	require.NoError(t, l.Do(ctx, func(e *game.Engine) error {
		var err error
		clicked, err = e.Click()
		return err
	}))
	require.EqualValues(t, 1, clicked)

	err := l.Do(ctx, func(e *game.Engine) error { return e.BuyUpgrade(5) })
	require.ErrorIs(t, err, game.ErrInsufficientFunds)

	cancel()
	require.NoError(t, <-errc)
	require.ErrorIs(t, l.Do(ctx, func(*game.Engine) error { return nil }), ErrStopped)
}

func TestIncomeTicksThroughQueue(t *testing.T) {
	l := New(newEngine(clock.NewFake(testNow), func(s *game.PlayerState) { s.UpgradeLevels[4] = 1 }), Options{
		DisableBonus:    true,
		TickEvery:       5 * time.Millisecond,
		LaunchStepEvery: time.Hour,
	})
	cancel, errc := startLoop(t, l)
	defer func() {
		cancel()
		<-errc
	}()

	require.Eventually(t, func() bool {
		var st game.PlayerState
		_ = l.Do(context.Background(), func(e *game.Engine) error {
			st = e.State()
			return nil
		})
		return st.Balance >= 300 && st.TotalSecondsPlayed >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAutosaveSyncAndFinalSave(t *testing.T) {
	p := &memPersister{}
	clk := clock.NewFake(testNow)
	l := New(newEngine(clk, func(s *game.PlayerState) { s.Balance = 10 }), Options{
		Clock:           clk,
		Persister:       p,
		DisableBonus:    true,
		TickEvery:       time.Hour,
		LaunchStepEvery: time.Hour,
		AutosaveEvery:   5 * time.Millisecond,
		SyncEvery:       5 * time.Millisecond,
	})
	cancel, errc := startLoop(t, l)

	require.Eventually(t, func() bool {
		local, remote := p.counts()
		return local >= 2 && remote >= 2
	}, 2*time.Second, 5*time.Millisecond)

	clk.Advance(time.Minute)
	cancel()
	require.NoError(t, <-errc)

	st, err := game.Reconcile(p.lastLocal(), game.DefaultState(testNow))
	require.NoError(t, err)
	require.EqualValues(t, 10, st.Balance)
	require.Equal(t, testNow.Add(time.Minute), st.LastOnlineAt)
}

func TestUncollectedOfflineSurvivesReadOnlySession(t *testing.T) {
	p := &memPersister{}
	clk := clock.NewFake(testNow)
	first := New(newEngine(clk, func(s *game.PlayerState) {
		s.UpgradeLevels[1] = 1
		s.LastOnlineAt = testNow.Add(-time.Hour)
	}), Options{Clock: clk, Persister: p, DisableBonus: true, TickEvery: time.Hour, LaunchStepEvery: time.Hour})
	cancel, errc := startLoop(t, first)

	var pending int64
	require.NoError(t, first.Do(context.Background(), func(e *game.Engine) error {
		pending = e.PendingOffline()
		return nil
	}))
	require.EqualValues(t, 3600, pending)
	cancel()
	require.NoError(t, <-errc)

	clk.Advance(5 * time.Second)
	st, err := game.Reconcile(p.lastLocal(), game.DefaultState(clk.Now()))
	require.NoError(t, err)
	second := game.NewEngine(st, game.Options{Clock: clk})
	require.EqualValues(t, 3605, second.PendingOffline())
}

func TestCollectBonusWithoutSpawn(t *testing.T) {
	l := New(newEngine(clock.NewFake(testNow), nil), Options{DisableBonus: true, TickEvery: time.Hour, LaunchStepEvery: time.Hour})
	cancel, errc := startLoop(t, l)
	defer func() {
		cancel()
		<-errc
	}()

	_, err := l.CollectBonus(context.Background())
	require.True(t, errors.Is(err, game.ErrBonusNotArmed))
}

func TestPostDropsWhenFull(t *testing.T) {
	l := New(newEngine(clock.NewFake(testNow), nil), Options{})
	for i := 0; i < cap(l.cmds); i++ {
		require.True(t, l.Post(func(*game.Engine) {}))
	}
	require.False(t, l.Post(func(*game.Engine) {}))
}

func bonusView(l *Loop, clk clock.Clock) (game.BonusView, int64) {
	var (
		view    game.BonusView
		balance int64
	)
	_ = l.Do(context.Background(), func(e *game.Engine) error {
		view = e.Bonus(clk.Now())
		balance = e.State().Balance
		return nil
	})
	return view, balance
}

func TestBonusExpiresAndReschedules(t *testing.T) {
	clk := clock.NewFake(testNow)
	l := New(newEngine(clk, func(s *game.PlayerState) { s.UpgradeLevels[4] = 1 }), Options{
		Clock:           clk,
		TickEvery:       time.Hour,
		LaunchStepEvery: time.Hour,
	})
	cancel, errc := startLoop(t, l)
	defer func() {
		cancel()
		<-errc
	}()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, 2*time.Second, time.Millisecond)
	clk.Advance(game.BonusMaxDelay)
	require.Eventually(t, func() bool {
		view, _ := bonusView(l, clk)
		return view.Armed && clk.Waiters() == 1
	}, 2*time.Second, time.Millisecond)
	_, before := bonusView(l, clk)

	clk.Advance(game.BonusWindow)
	require.Eventually(t, func() bool {
		view, _ := bonusView(l, clk)
		return !view.Armed && clk.Waiters() == 1
	}, 2*time.Second, time.Millisecond)
	_, after := bonusView(l, clk)
	require.Equal(t, before, after)

	// a new spawn is scheduled after the expiry
	clk.Advance(game.BonusMaxDelay)
	require.Eventually(t, func() bool {
		view, _ := bonusView(l, clk)
		return view.Armed
	}, 2*time.Second, time.Millisecond)
}

func TestBonusCollectResetsScheduler(t *testing.T) {
	clk := clock.NewFake(testNow)
	l := New(newEngine(clk, func(s *game.PlayerState) { s.UpgradeLevels[4] = 1 }), Options{
		Clock:           clk,
		TickEvery:       time.Hour,
		LaunchStepEvery: time.Hour,
	})
	cancel, errc := startLoop(t, l)
	defer func() {
		cancel()
		<-errc
	}()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, 2*time.Second, time.Millisecond)
	clk.Advance(game.BonusMaxDelay)
	require.Eventually(t, func() bool {
		view, _ := bonusView(l, clk)
		return view.Armed
	}, 2*time.Second, time.Millisecond)
	view, _ := bonusView(l, clk)

	reward, err := l.CollectBonus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 100*view.Multiplier, reward)

	// the stale window timer plus the next spawn delay
	require.Eventually(t, func() bool { return clk.Waiters() == 2 }, 2*time.Second, time.Millisecond)
	after, balance := bonusView(l, clk)
	require.False(t, after.Armed)
	require.Equal(t, reward, balance)

	clk.Advance(game.BonusMaxDelay)
	require.Eventually(t, func() bool {
		next, _ := bonusView(l, clk)
		return next.Armed
	}, 2*time.Second, time.Millisecond)
}
