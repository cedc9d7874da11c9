package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bricks/internal/db"
	"bricks/internal/game"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	url := os.Getenv("BRICKS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BRICKS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("bricks_test_%d", time.Now().UnixNano())

	pool, err := db.Connect(ctx, url, schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		pool.Close()
	})
	require.NoError(t, db.Migrate(ctx, pool, schema, nil))
	return New(pool)
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, DefaultLeaderboardLimit, ClampLimit(0))
	require.Equal(t, DefaultLeaderboardLimit, ClampLimit(-3))
	require.Equal(t, 25, ClampLimit(25))
	require.Equal(t, MaxLeaderboardLimit, ClampLimit(1000))
}

func TestUpsertPlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetPlayer(ctx, "1")
	require.ErrorIs(t, err, ErrNotFound)

	first, err := s.UpsertPlayer(ctx, Player{PlayerID: "1", Username: "alice", Balance: 10, Followers: 1, GameState: []byte(`{"bux":10}`), Flagged: true})
	require.NoError(t, err)
	require.True(t, first.Flagged)

	second, err := s.UpsertPlayer(ctx, Player{PlayerID: "1", Username: "alice", Balance: 5, Followers: 3, Clout: 1})
	require.NoError(t, err)
	require.EqualValues(t, 5, second.Balance)
	require.True(t, second.Flagged)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := s.GetPlayer(ctx, "1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(got.GameState))
}

func TestSubmitScoreOnlyWhenHigher(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	updated, err := s.SubmitScore(ctx, game.ScoreRecord{Username: "whale", Balance: 20_000_000, CloutLevel: 2})
	require.NoError(t, err)
	require.True(t, updated)

	updated, err = s.SubmitScore(ctx, game.ScoreRecord{Username: "whale", Balance: 10_000_000, CloutLevel: 3})
	require.NoError(t, err)
	require.False(t, updated)

	updated, err = s.SubmitScore(ctx, game.ScoreRecord{Username: "whale", Balance: 30_000_000, CloutLevel: 4})
	require.NoError(t, err)
	require.True(t, updated)

	_, err = s.SubmitScore(ctx, game.ScoreRecord{Username: "zero", Balance: 99_000_000, CloutLevel: 0})
	require.NoError(t, err)

	rows, err := s.TopScores(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []game.LeaderboardRow{{Rank: 1, Username: "whale", Balance: 30_000_000, CloutLevel: 4}}, rows)
}
