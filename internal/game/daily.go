package game

import (
	"time"

	"bricks/internal/events"
)

// effectiveStreak is the streak after applying the reset rule for long gaps.
func (s PlayerState) effectiveStreak(now time.Time) int {
	if s.LastDailyClaimAt == nil {
		return s.DailyStreak
	}
	if now.Sub(*s.LastDailyClaimAt) >= DailyStreakReset {
		return 0
	}
	return s.DailyStreak
}

func (e *Engine) Daily(now time.Time) DailyView {
	streak := e.state.effectiveStreak(now)
	day := streak%len(DailyRewards) + 1
	v := DailyView{
		Streak:   streak,
		NextDay:  day,
		Reward:   DailyRewards[day-1],
		CanClaim: true,
	}
	if last := e.state.LastDailyClaimAt; last != nil {
		if wait := last.Add(DailyCooldown).Sub(now); wait > 0 {
			v.CanClaim = false
			v.ReadyIn = wait
		}
	}
	return v
}

// ClaimDaily grants the next reward in the seven-day cycle.
func (e *Engine) ClaimDaily(now time.Time) (int64, error) {
	v := e.Daily(now)
	if !v.CanClaim {
		return 0, ErrDailyCooldown
	}
	claimed := now.UTC()
	e.state.DailyStreak = v.NextDay
	e.state.LastDailyClaimAt = &claimed
	e.credit(v.Reward)
	e.recompute()
	e.publish(events.RewardGranted, v.Reward, "daily")
	return v.Reward, nil
}
