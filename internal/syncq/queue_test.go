package syncq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bricks/internal/game"
)

type stubSubmitter struct {
	fail map[string]bool
	got  []game.ScoreRecord
}

func (s *stubSubmitter) SubmitScore(_ context.Context, rec game.ScoreRecord) error {
	if s.fail[rec.Username] {
		return errors.New("offline")
	}
	s.got = append(s.got, rec)
	return nil
}

func TestPushKeepsBestPerUsername(t *testing.T) {
	q, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, q.Push(game.ScoreRecord{Username: "bob", Balance: 2_000_000}))
	require.NoError(t, q.Push(game.ScoreRecord{Username: "bob", Balance: 1_000_000}))
	require.NoError(t, q.Push(game.ScoreRecord{Username: "amy", Balance: 1_500_000}))

	records, err := q.Load()
	require.NoError(t, err)
	require.Equal(t, []game.ScoreRecord{
		{Username: "amy", Balance: 1_500_000},
		{Username: "bob", Balance: 2_000_000},
	}, records)
}

func TestFlushKeepsFailures(t *testing.T) {
	q, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, q.Push(game.ScoreRecord{Username: "amy", Balance: 1}))
	require.NoError(t, q.Push(game.ScoreRecord{Username: "bob", Balance: 2}))

	sub := &stubSubmitter{fail: map[string]bool{"bob": true}}
	sent, err := q.Flush(context.Background(), sub)
	require.Error(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, sub.got, 1)

	records, err := q.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "bob", records[0].Username)

	sub.fail = nil
	sent, err = q.Flush(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	records, err = q.Load()
	require.NoError(t, err)
	require.Empty(t, records)
}
