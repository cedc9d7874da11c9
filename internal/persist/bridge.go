package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"bricks/internal/game"
)

// SavePayload is the body of POST /save.
type SavePayload struct {
	PlayerID      string          `json:"playerId"`
	Username      string          `json:"username"`
	Balance       int64           `json:"balance"`
	Followers     int64           `json:"followers"`
	CloutLevel    int64           `json:"cloutLevel"`
	StateSnapshot json.RawMessage `json:"stateSnapshot"`
	HostAuthToken string          `json:"hostAuthToken,omitempty"`
}

// Uploader sends a save to the remote store.
type Uploader interface {
	UploadSave(ctx context.Context, payload SavePayload) error
}

// Bridge joins the local durable copy and the remote sink for one player.
type Bridge struct {
	local    *LocalStore
	remote   Uploader
	playerID string
	initData string
	log      *slog.Logger
}

func NewBridge(local *LocalStore, remote Uploader, playerID, initData string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		local:    local,
		remote:   remote,
		playerID: playerID,
		initData: initData,
		log:      logger,
	}
}

func (b *Bridge) PlayerID() string {
	return b.playerID
}

// Load restores the local save over defaults. A corrupt save is logged and
// replaced by defaults rather than failing startup.
func (b *Bridge) Load(now time.Time) (game.PlayerState, error) {
	defaults := game.DefaultState(now)
	raw, err := b.local.LoadSave()
	if err != nil {
		return defaults, err
	}
	st, err := game.Reconcile(raw, defaults)
	if err != nil {
		b.log.Warn("discarding unreadable save", "error", err)
		return defaults, nil
	}
	return st, nil
}

func (b *Bridge) SaveLocal(raw []byte) error {
	return b.local.WriteSave(raw)
}

// SyncRemote uploads the snapshot. A fresh, untouched state is not uploaded.
func (b *Bridge) SyncRemote(ctx context.Context, st game.PlayerState, raw []byte) error {
	if b.remote == nil || b.playerID == "" {
		return nil
	}
	if st.Balance == 0 && st.Followers == game.DefaultFollowers && st.CloutLevel == 0 {
		return nil
	}
	return b.remote.UploadSave(ctx, SavePayload{
		PlayerID:      b.playerID,
		Username:      st.Username,
		Balance:       st.Balance,
		Followers:     st.Followers,
		CloutLevel:    st.CloutLevel,
		StateSnapshot: raw,
		HostAuthToken: b.initData,
	})
}

// DeleteSave removes the local save. The device file, and with it the
// referral flag, is kept.
func (b *Bridge) DeleteSave(now time.Time) (game.PlayerState, error) {
	if err := b.local.DeleteSave(); err != nil {
		return game.PlayerState{}, err
	}
	return game.DefaultState(now), nil
}

// ScoreSubmitter posts a leaderboard entry.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, rec game.ScoreRecord) error
}

// AsyncScoreSink submits scores in the background so a slow leaderboard never
// stalls the engine. Failures are logged only.
type AsyncScoreSink struct {
	inner   ScoreSubmitter
	log     *slog.Logger
	timeout time.Duration
	done    func(game.ScoreRecord, error)
	pending sync.WaitGroup
}

func NewAsyncScoreSink(inner ScoreSubmitter, logger *slog.Logger) *AsyncScoreSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncScoreSink{inner: inner, log: logger, timeout: 15 * time.Second}
}

// OnDone registers a callback invoked with the outcome of every submission.
func (s *AsyncScoreSink) OnDone(fn func(game.ScoreRecord, error)) {
	s.done = fn
}

var errNoSubmitter = errors.New("no leaderboard configured")

func (s *AsyncScoreSink) SubmitScore(_ context.Context, rec game.ScoreRecord) error {
	if s.inner == nil {
		return errNoSubmitter
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		err := s.inner.SubmitScore(ctx, rec)
		if err != nil {
			s.log.Warn("leaderboard submit failed", "username", rec.Username, "balance", rec.Balance, "error", err)
		}
		if s.done != nil {
			s.done(rec, err)
		}
	}()
	return nil
}

// Wait blocks until every submission started so far has finished and its
// OnDone callback has run.
func (s *AsyncScoreSink) Wait() {
	s.pending.Wait()
}
