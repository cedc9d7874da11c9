package events

import (
	"sync"
	"time"
)

// Type names a kind of game event.
type Type string

const (
	Clicked             Type = "Clicked"
	Purchased           Type = "Purchased"
	Prestiged           Type = "Prestiged"
	BonusSpawned        Type = "BonusSpawned"
	BonusCollected      Type = "BonusCollected"
	BonusExpired        Type = "BonusExpired"
	RewardGranted       Type = "RewardGranted"
	LaunchResolved      Type = "LaunchResolved"
	AchievementClaimed  Type = "AchievementClaimed"
	OfflineCollected    Type = "OfflineCollected"
	SaveFailed          Type = "SaveFailed"
	LeaderboardRejected Type = "LeaderboardRejected"
)

// Event is a single notification published by the engine or the runtime.
type Event struct {
	Type   Type
	At     time.Time
	Amount int64
	Ref    string
}

// Bus is a typed in-process publish/subscribe channel. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a receive channel and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
