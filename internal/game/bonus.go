package game

import (
	"time"

	"bricks/internal/events"
)

const (
	BonusMinDelay      = 2 * time.Minute
	BonusMaxDelay      = 5 * time.Minute
	BonusWindow        = 10 * time.Second
	BonusMinMultiplier = 7
	BonusMaxMultiplier = 30

	bonusPadding = 15.0
	bonusWidth   = 100.0
	bonusHeight  = 60.0
)

type bonusSlot struct {
	armed      bool
	multiplier int64
	position   Position
	expiresAt  time.Time
}

// NextBonusDelay draws the wait before the next bonus spawns.
func (e *Engine) NextBonusDelay() time.Duration {
	spread := int64(BonusMaxDelay - BonusMinDelay)
	return BonusMinDelay + time.Duration(e.rand.Int63n(spread+1))
}

// SpawnBonus arms the slot. An already armed slot is left as is.
func (e *Engine) SpawnBonus(now time.Time) BonusView {
	if e.bonus.armed {
		return e.Bonus(now)
	}
	e.bonus = bonusSlot{
		armed:      true,
		multiplier: BonusMinMultiplier + e.rand.Int63n(BonusMaxMultiplier-BonusMinMultiplier+1),
		position: Position{
			X: bonusPadding + e.rand.Float64()*(bonusWidth-2*bonusPadding),
			Y: bonusPadding + e.rand.Float64()*(bonusHeight-2*bonusPadding),
		},
		expiresAt: now.Add(BonusWindow),
	}
	e.publish(events.BonusSpawned, e.bonus.multiplier, "")
	return e.Bonus(now)
}

// ExpireBonus disarms the slot once its window has passed and reports whether it did.
func (e *Engine) ExpireBonus(now time.Time) bool {
	if !e.bonus.armed || now.Before(e.bonus.expiresAt) {
		return false
	}
	mult := e.bonus.multiplier
	e.bonus = bonusSlot{}
	e.publish(events.BonusExpired, mult, "")
	return true
}

func (e *Engine) CollectBonus(now time.Time) (int64, error) {
	if e.ExpireBonus(now) || !e.bonus.armed {
		return 0, ErrBonusNotArmed
	}
	reward := e.income * e.bonus.multiplier
	e.bonus = bonusSlot{}
	e.credit(reward)
	e.recompute()
	e.publish(events.BonusCollected, reward, "")
	return reward, nil
}

func (e *Engine) Bonus(now time.Time) BonusView {
	if !e.bonus.armed {
		return BonusView{}
	}
	remaining := e.bonus.expiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return BonusView{
		Armed:      true,
		Multiplier: e.bonus.multiplier,
		Position:   e.bonus.position,
		ExpiresAt:  e.bonus.expiresAt,
		Remaining:  int64((remaining + time.Second - 1) / time.Second),
	}
}
