package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bricks/internal/game"
)

var ErrNotFound = errors.New("not found")

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type Player struct {
	PlayerID  string    `json:"player_id"`
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	Followers int64     `json:"followers"`
	Clout     int64     `json:"clout"`
	GameState []byte    `json:"-"`
	Flagged   bool      `json:"flagged"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (Player, error) {
	var p Player
	err := s.db.QueryRow(ctx, `
		SELECT player_id, username, balance, followers, clout, game_state, flagged, last_login, created_at
		FROM players
		WHERE player_id = $1
	`, playerID).Scan(&p.PlayerID, &p.Username, &p.Balance, &p.Followers, &p.Clout, &p.GameState, &p.Flagged, &p.LastLogin, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// UpsertPlayer stores the latest save for a player. Last writer wins; a flag,
// once set, is kept.
func (s *Store) UpsertPlayer(ctx context.Context, p Player) (Player, error) {
	state := p.GameState
	if len(state) == 0 {
		state = []byte("{}")
	}
	var out Player
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (player_id, username, balance, followers, clout, game_state, flagged, last_login)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, now())
		ON CONFLICT (player_id) DO UPDATE SET
			username = EXCLUDED.username,
			balance = EXCLUDED.balance,
			followers = EXCLUDED.followers,
			clout = EXCLUDED.clout,
			game_state = EXCLUDED.game_state,
			flagged = players.flagged OR EXCLUDED.flagged,
			last_login = now()
		RETURNING player_id, username, balance, followers, clout, game_state, flagged, last_login, created_at
	`, p.PlayerID, p.Username, p.Balance, p.Followers, p.Clout, string(state), p.Flagged).Scan(
		&out.PlayerID, &out.Username, &out.Balance, &out.Followers, &out.Clout, &out.GameState, &out.Flagged, &out.LastLogin, &out.CreatedAt,
	)
	if err != nil {
		return Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return out, nil
}

// SubmitScore records rec only if it beats the stored balance for the username.
// It reports whether the row changed.
func (s *Store) SubmitScore(ctx context.Context, rec game.ScoreRecord) (bool, error) {
	var username string
	err := s.db.QueryRow(ctx, `
		INSERT INTO leaderboard (username, balance, clout, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (username) DO UPDATE SET
			balance = EXCLUDED.balance,
			clout = EXCLUDED.clout,
			updated_at = now()
		WHERE leaderboard.balance < EXCLUDED.balance
		RETURNING username
	`, rec.Username, rec.Balance, rec.CloutLevel).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("submit score: %w", err)
	}
	return true, nil
}

// TopScores lists prestiged players by best balance.
func (s *Store) TopScores(ctx context.Context, limit int) ([]game.LeaderboardRow, error) {
	limit = ClampLimit(limit)
	rows, err := s.db.Query(ctx, `
		SELECT username, balance, clout
		FROM leaderboard
		WHERE clout > 0
		ORDER BY balance DESC, updated_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	out := make([]game.LeaderboardRow, 0, limit)
	for rows.Next() {
		var row game.LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Balance, &row.CloutLevel); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		row.Rank = int64(len(out) + 1)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return out, nil
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return min(limit, MaxLeaderboardLimit)
}
