package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"bricks/internal/auth"
	"bricks/internal/clock"
	cl "bricks/internal/cli"
	"bricks/internal/config"
	"bricks/internal/events"
	"bricks/internal/game"
	"bricks/internal/logging"
	"bricks/internal/persist"
	"bricks/internal/runtime"
	"bricks/internal/syncq"
)

type appOptions struct {
	apiBase string
	offline bool
	// interactive enables the periodic tasks the TUI needs.
	interactive bool
}

// app wires one local player: storage, API client, engine and its loop.
type app struct {
	cfg      config.ClientConfig
	log      *slog.Logger
	logClose io.Closer

	local    *persist.LocalStore
	client   *cl.Client
	bridge   *persist.Bridge
	outbox   *syncq.Queue
	scores   *persist.AsyncScoreSink
	bus      *events.Bus
	clock    clock.Clock
	engine   *game.Engine
	loop     *runtime.Loop
	playerID string
	referral string

	cancel  context.CancelFunc
	stopped chan error
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.LoadClientFromEnv()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.apiBase) != "" {
		cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(opts.apiBase), "/")
	}

	local, err := persist.NewLocalStore(cfg.Home)
	if err != nil {
		return nil, fmt.Errorf("open save dir: %w", err)
	}
	logger, logClose, err := logging.NewFileLogger(filepath.Join(cfg.Home, "client.log"), slog.LevelInfo)
	if err != nil {
		return nil, err
	}
	outbox, err := syncq.Open(cfg.Home)
	if err != nil {
		_ = logClose.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		logClose: logClose,
		local:    local,
		outbox:   outbox,
		bus:      events.NewBus(),
		clock:    clock.RealClock{},
		stopped:  make(chan error, 1),
	}
	if err := a.resolvePlayer(); err != nil {
		a.closeLog()
		return nil, err
	}

	var uploader persist.Uploader
	var scores persist.ScoreSubmitter
	if !opts.offline && cfg.APIBaseURL != "" {
		a.client = cl.NewClient(cfg.APIBaseURL)
		uploader = a.client
		scores = a.client
	}
	a.bridge = persist.NewBridge(local, uploader, a.playerID, cfg.InitData, logger)

	var sink game.ScoreSink = outboxSink{q: outbox}
	if scores != nil {
		async := persist.NewAsyncScoreSink(scores, logger)
		async.OnDone(func(rec game.ScoreRecord, err error) {
			if err == nil {
				return
			}
			if qerr := a.outbox.Push(rec); qerr != nil {
				a.log.Warn("queue pending score", "error", qerr)
			}
		})
		a.scores = async
		sink = async
	}

	st, err := a.bridge.Load(a.clock.Now())
	if err != nil {
		a.log.Warn("load save", "error", err)
	}
	a.engine = game.NewEngine(st, game.Options{
		Logger: logger,
		Clock:  a.clock,
		Bus:    a.bus,
		Sink:   sink,
	})
	if a.referral != "" {
		if applied, err := a.engine.ApplyReferral(a.referral, a.playerID, local); err != nil {
			a.log.Warn("apply referral", "error", err)
		} else if applied {
			a.log.Info("referral bonus applied", "token", a.referral)
		}
	}

	loopOpts := runtime.Options{
		Logger:       logger,
		Clock:        a.clock,
		Bus:          a.bus,
		Persister:    a.bridge,
		DisableBonus: !opts.interactive,
	}
	if opts.interactive {
		loopOpts.AutosaveEvery = cfg.AutosaveEvery
		loopOpts.SyncEvery = cfg.SyncEvery
	}
	a.loop = runtime.New(a.engine, loopOpts)

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go func() { a.stopped <- a.loop.Run(loopCtx) }()
	return a, nil
}

// resolvePlayer prefers the signed host identity over the device id.
func (a *app) resolvePlayer() error {
	dev, err := a.local.Device()
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}
	a.playerID = dev.PlayerID
	a.referral = a.cfg.StartParam
	if a.cfg.InitData == "" {
		return nil
	}
	data, err := auth.ParseInitData(a.cfg.InitData)
	if err != nil {
		return fmt.Errorf("parse BRICKS_INIT_DATA: %w", err)
	}
	if id := data.PlayerID(); id != "" {
		a.playerID = id
	}
	if a.referral == "" {
		a.referral = data.StartParam
	}
	return nil
}

// do runs fn against the engine on the loop goroutine.
func (a *app) do(ctx context.Context, fn func(e *game.Engine) error) error {
	return a.loop.Do(ctx, fn)
}

func (a *app) state(ctx context.Context) (game.PlayerState, error) {
	var st game.PlayerState
	err := a.do(ctx, func(e *game.Engine) error {
		st = e.State()
		return nil
	})
	return st, err
}

// close stops the loop (which writes the final local save), waits for score
// submissions in flight and pushes one last remote sync when online.
func (a *app) close(ctx context.Context) error {
	a.cancel()
	err := <-a.stopped
	if a.scores != nil {
		a.scores.Wait()
	}
	if a.client != nil {
		raw, rerr := a.local.LoadSave()
		if rerr == nil && raw != nil {
			st, rerr := game.Reconcile(raw, game.DefaultState(a.clock.Now()))
			if rerr == nil {
				syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				if serr := a.bridge.SyncRemote(syncCtx, st, raw); serr != nil {
					a.log.Warn("final remote sync failed", "error", serr)
				}
				cancel()
			}
		}
	}
	a.closeLog()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) closeLog() {
	if a.logClose != nil {
		_ = a.logClose.Close()
	}
}

// outboxSink parks scores while offline until `bricks sync`.
type outboxSink struct {
	q *syncq.Queue
}

func (s outboxSink) SubmitScore(_ context.Context, rec game.ScoreRecord) error {
	return s.q.Push(rec)
}
