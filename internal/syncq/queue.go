package syncq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"bricks/internal/game"
)

// Queue holds leaderboard submissions that could not be delivered. Only the
// best record per username is kept.
type Queue struct {
	mu   sync.Mutex
	path string
}

type Submitter interface {
	SubmitScore(ctx context.Context, rec game.ScoreRecord) error
}

func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Queue{path: filepath.Join(dir, "pending_scores.json")}, nil
}

func (q *Queue) Load() ([]game.ScoreRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) load() ([]game.ScoreRecord, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []game.ScoreRecord{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []game.ScoreRecord{}, nil
	}
	var out []game.ScoreRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) save(records []game.ScoreRecord) error {
	if len(records) == 0 {
		if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, raw, 0o600)
}

func (q *Queue) Push(rec game.ScoreRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	records, err := q.load()
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.Username == rec.Username {
			if rec.Balance > r.Balance {
				records[i] = rec
			}
			return q.save(records)
		}
	}
	records = append(records, rec)
	sort.Slice(records, func(i, j int) bool { return records[i].Username < records[j].Username })
	return q.save(records)
}

// Flush submits every pending record and keeps the ones that still fail.
func (q *Queue) Flush(ctx context.Context, sub Submitter) (sent int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	records, err := q.load()
	if err != nil {
		return 0, err
	}
	var left []game.ScoreRecord
	var firstErr error
	for _, rec := range records {
		if err := sub.SubmitScore(ctx, rec); err != nil {
			left = append(left, rec)
			if firstErr == nil {
				firstErr = fmt.Errorf("submit %s: %w", rec.Username, err)
			}
			continue
		}
		sent++
	}
	if err := q.save(left); err != nil {
		return sent, err
	}
	return sent, firstErr
}
