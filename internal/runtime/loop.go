package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"bricks/internal/clock"
	"bricks/internal/events"
	"bricks/internal/game"
)

var ErrStopped = errors.New("runtime stopped")

// Persister is the save side of the persistence bridge.
type Persister interface {
	SaveLocal(raw []byte) error
	SyncRemote(ctx context.Context, st game.PlayerState, raw []byte) error
}

type Options struct {
	Logger    *slog.Logger
	Clock     clock.Clock
	Bus       *events.Bus
	Persister Persister

	TickEvery       time.Duration
	LaunchStepEvery time.Duration
	AutosaveEvery   time.Duration
	SyncEvery       time.Duration
	SyncTimeout     time.Duration

	// DisableBonus turns off the golden brick scheduler.
	DisableBonus bool
}

// Loop is the only goroutine that touches the engine. Every periodic task and
// every UI action reaches the engine as a command on one queue.
type Loop struct {
	engine *game.Engine
	opts   Options
	log    *slog.Logger

	cmds       chan func(*game.Engine)
	bonusReset chan struct{}
	done       chan struct{}
	inflight   sync.WaitGroup
}

func New(engine *game.Engine, opts Options) *Loop {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.TickEvery <= 0 {
		opts.TickEvery = time.Second
	}
	if opts.LaunchStepEvery <= 0 {
		opts.LaunchStepEvery = 800 * time.Millisecond
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 15 * time.Second
	}
	return &Loop{
		engine:     engine,
		opts:       opts,
		log:        opts.Logger,
		cmds:       make(chan func(*game.Engine), 64),
		bonusReset: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled, then stops the tasks and
// writes a final local save.
func (l *Loop) Run(ctx context.Context) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	l.every(taskCtx, &wg, l.opts.TickEvery, func(e *game.Engine) { e.TickIncome() })
	l.every(taskCtx, &wg, l.opts.TickEvery, func(e *game.Engine) { e.TickPlaytime() })
	l.every(taskCtx, &wg, l.opts.LaunchStepEvery, func(e *game.Engine) { _, _ = e.StepLaunch() })
	if l.opts.Persister != nil {
		if l.opts.AutosaveEvery > 0 {
			l.every(taskCtx, &wg, l.opts.AutosaveEvery, l.saveLocal)
		}
		if l.opts.SyncEvery > 0 {
			l.every(taskCtx, &wg, l.opts.SyncEvery, l.syncRemote)
		}
	}
	if !l.opts.DisableBonus {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.runBonus(taskCtx)
		}()
	}

	for {
		select {
		case fn := <-l.cmds:
			fn(l.engine)
		case <-ctx.Done():
			cancel()
			wg.Wait()
			if l.opts.Persister != nil {
				l.saveLocal(l.engine)
			}
			close(l.done)
			l.inflight.Wait()
			return nil
		}
	}
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*game.Engine) error) error {
	errc := make(chan error, 1)
	cmd := func(e *game.Engine) { errc <- fn(e) }
	select {
	case l.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Post queues fn without waiting. It reports false when the queue is full.
func (l *Loop) Post(fn func(*game.Engine)) bool {
	select {
	case l.cmds <- fn:
		return true
	default:
		return false
	}
}

// CollectBonus collects an armed golden brick and lets the scheduler move on.
func (l *Loop) CollectBonus(ctx context.Context) (int64, error) {
	var reward int64
	err := l.Do(ctx, func(e *game.Engine) error {
		var err error
		reward, err = e.CollectBonus(l.opts.Clock.Now())
		return err
	})
	if err == nil {
		select {
		case l.bonusReset <- struct{}{}:
		default:
		}
	}
	return reward, err
}

func (l *Loop) every(ctx context.Context, wg *sync.WaitGroup, interval time.Duration, fn func(*game.Engine)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case l.cmds <- fn:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (l *Loop) saveLocal(e *game.Engine) {
	e.MarkOnline()
	raw, err := e.Snapshot()
	if err != nil {
		l.log.Error("encode snapshot", "error", err)
		return
	}
	if err := l.opts.Persister.SaveLocal(raw); err != nil {
		l.log.Warn("local save failed", "error", err)
		l.opts.Bus.Publish(events.Event{Type: events.SaveFailed, At: l.opts.Clock.Now(), Ref: "local"})
	}
}

func (l *Loop) syncRemote(e *game.Engine) {
	e.MarkOnline()
	st := e.State()
	raw, err := e.Snapshot()
	if err != nil {
		l.log.Error("encode snapshot", "error", err)
		return
	}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.opts.SyncTimeout)
		defer cancel()
		if err := l.opts.Persister.SyncRemote(ctx, st, raw); err != nil {
			l.log.Warn("remote sync failed", "error", err)
			l.opts.Bus.Publish(events.Event{Type: events.SaveFailed, At: l.opts.Clock.Now(), Ref: "remote"})
		}
	}()
}

func (l *Loop) runBonus(ctx context.Context) {
	for {
		var delay time.Duration
		if err := l.Do(ctx, func(e *game.Engine) error {
			delay = e.NextBonusDelay()
			return nil
		}); err != nil {
			return
		}
		if !l.sleep(ctx, delay) {
			return
		}

		select {
		case <-l.bonusReset:
		default:
		}
		if err := l.Do(ctx, func(e *game.Engine) error {
			e.SpawnBonus(l.opts.Clock.Now())
			return nil
		}); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-l.bonusReset:
		case <-l.opts.Clock.After(game.BonusWindow):
			if err := l.Do(ctx, func(e *game.Engine) error {
				e.ExpireBonus(l.opts.Clock.Now())
				return nil
			}); err != nil {
				return
			}
		}
	}
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-l.opts.Clock.After(d):
		return true
	}
}
