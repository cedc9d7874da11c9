package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bricks/internal/auth"
	"bricks/internal/clock"
	"bricks/internal/config"
	"bricks/internal/game"
	"bricks/internal/logging"
	"bricks/internal/notify"
	"bricks/internal/ratelimit"
	"bricks/internal/reporting"
	"bricks/internal/store"
	"bricks/internal/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const announceTimeout = 10 * time.Second

type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (store.Player, error)
	UpsertPlayer(ctx context.Context, p store.Player) (store.Player, error)
}

type LeaderboardStore interface {
	SubmitScore(ctx context.Context, rec game.ScoreRecord) (bool, error)
	TopScores(ctx context.Context, limit int) ([]game.LeaderboardRow, error)
}

type WalletQuoter interface {
	Quote(ctx context.Context, address string) (wallet.Quote, error)
}

type Deps struct {
	Players     PlayerStore
	Leaderboard LeaderboardStore
	Wallets     WalletQuoter
	Announcer   notify.Announcer
	// Limiter throttles write routes per client IP; nil disables it.
	Limiter ratelimit.Limiter
	// Sentry wraps every request when set.
	Sentry func(http.Handler) http.Handler
	Clock  clock.Clock
}

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	deps Deps
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Announcer == nil {
		deps.Announcer = notify.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		deps: deps,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.NewRequestLoggerMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.deps.Sentry != nil {
		r.Use(s.deps.Sentry)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/leaderboard", s.handleLeaderboard)

	r.Group(func(r chi.Router) {
		if s.deps.Limiter != nil {
			r.Use(ratelimit.Middleware(s.deps.Limiter, ratelimit.IPKey))
		}
		r.Post("/save", s.handleSave)
		r.Post("/wallet-assets", s.handleWalletAssets)
		r.Post("/wallet-verify", s.handleWalletVerify)
		r.Post("/leaderboard", s.handleSubmitScore)
	})
}

// authRequired is false in dev mode or when no bot token is configured.
func (s *Server) authRequired() bool {
	return s.cfg.TelegramBotToken != "" && !s.cfg.DevMode
}

type saveRequest struct {
	PlayerID      string          `json:"playerId"`
	Username      string          `json:"username"`
	Balance       int64           `json:"balance"`
	Followers     int64           `json:"followers"`
	CloutLevel    int64           `json:"cloutLevel"`
	StateSnapshot json.RawMessage `json:"stateSnapshot"`
	HostAuthToken string          `json:"hostAuthToken,omitempty"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var in saveRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.PlayerID = strings.TrimSpace(in.PlayerID)
	if in.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "missing playerId")
		return
	}
	if err := s.verifyHost(in.HostAuthToken, in.PlayerID); err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := reporting.SetPlayerIDInContext(r.Context(), in.PlayerID)
	ctx = logging.AddMetaToContext(ctx, slog.String("playerId", in.PlayerID))
	logger := logging.FromContext(ctx)

	now := s.deps.Clock.Now().UTC()
	flagged := false
	prev, err := s.deps.Players.GetPlayer(ctx, in.PlayerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		reporting.Report(ctx, err)
		writeDomainError(w, err)
		return
	default:
		prevState := previousState(prev, now)
		next := prevState
		next.Balance = in.Balance
		elapsed := now.Sub(prev.LastLogin)
		if !game.Plausible(prevState, next, elapsed) {
			flagged = true
			logger.Warn("implausible balance gain",
				"previous", prevState.Balance,
				"uploaded", in.Balance,
				"elapsed", elapsed.String(),
				"limit", game.MaxPlausibleGain(prevState, elapsed),
			)
		}
	}

	saved, err := s.deps.Players.UpsertPlayer(ctx, store.Player{
		PlayerID:  in.PlayerID,
		Username:  strings.TrimSpace(in.Username),
		Balance:   in.Balance,
		Followers: in.Followers,
		Clout:     in.CloutLevel,
		GameState: in.StateSnapshot,
		Flagged:   flagged,
	})
	if err != nil {
		reporting.Report(ctx, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": saved})
}

func (s *Server) verifyHost(token, playerID string) error {
	if !s.authRequired() {
		return nil
	}
	data, err := auth.ValidateInitData(token, s.cfg.TelegramBotToken)
	if err != nil {
		return err
	}
	if data.PlayerID() != playerID {
		return auth.ErrPlayerMismatch
	}
	return nil
}

// previousState rebuilds the stored player's state. Row columns override the snapshot.
func previousState(p store.Player, now time.Time) game.PlayerState {
	st := game.DefaultState(now)
	if len(p.GameState) > 0 {
		if rec, err := game.Reconcile(p.GameState, st); err == nil {
			st = rec
		}
	}
	st.Balance = p.Balance
	st.Followers = max(p.Followers, game.DefaultFollowers)
	st.CloutLevel = p.Clout
	return st
}

func (s *Server) handleWalletAssets(w http.ResponseWriter, r *http.Request) {
	var in struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.WalletAddress) == "" {
		writeError(w, http.StatusBadRequest, "missing walletAddress")
		return
	}
	if s.deps.Wallets == nil {
		writeDomainError(w, wallet.ErrNotConfigured)
		return
	}
	quote, err := s.deps.Wallets.Quote(r.Context(), in.WalletAddress)
	if err != nil {
		if errors.Is(err, wallet.ErrUpstream) {
			reporting.Report(r.Context(), err, map[string]string{"wallet": in.WalletAddress})
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleWalletVerify(w http.ResponseWriter, r *http.Request) {
	var in struct {
		WalletAddress string `json:"walletAddress"`
		Signature     string `json:"signature"`
		Message       string `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.WalletAddress == "" || in.Signature == "" || in.Message == "" {
		writeError(w, http.StatusBadRequest, "missing walletAddress, signature, or message")
		return
	}
	addr, err := wallet.ValidateAddress(in.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verified":  true,
		"wallet":    addr,
		"timestamp": s.deps.Clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	rows, err := s.deps.Leaderboard.TopScores(r.Context(), store.ClampLimit(limit))
	if err != nil {
		reporting.Report(r.Context(), err)
		writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []game.LeaderboardRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var in game.ScoreRecord
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := game.ValidateUsername(in.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if in.Balance < 0 || in.CloutLevel < 0 {
		writeError(w, http.StatusBadRequest, "balance and cloutLevel must not be negative")
		return
	}
	in.Username = name

	updated, err := s.deps.Leaderboard.SubmitScore(r.Context(), in)
	if err != nil {
		reporting.Report(r.Context(), err)
		writeDomainError(w, err)
		return
	}
	if updated {
		s.announce(in)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

func (s *Server) announce(rec game.ScoreRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()
		if err := s.deps.Announcer.AnnounceBest(ctx, rec); err != nil {
			s.log.Warn("leaderboard announce failed", "username", rec.Username, "error", err)
		}
	}()
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAddress),
		errors.Is(err, game.ErrUsernameRequired),
		errors.Is(err, game.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrMissingHash),
		errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrPlayerMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrUpstream):
		writeError(w, http.StatusBadGateway, "failed to fetch wallet data")
	case errors.Is(err, wallet.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
