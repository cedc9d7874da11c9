package game

import "time"

const (
	// MaxClicksPerSecond is the fastest tap rate treated as human.
	MaxClicksPerSecond = 20
	// PlausibilitySlack absorbs income growth from purchases made between saves.
	PlausibilitySlack = 4
	plausibilityGrace = time.Minute
)

// MaxPlausibleGain bounds how much balance a player starting from prev can
// legitimately gain in elapsed wall time. Uploads above it get flagged.
func MaxPlausibleGain(prev PlayerState, elapsed time.Duration) int64 {
	if elapsed < 0 {
		elapsed = 0
	}
	secs := int64((elapsed + plausibilityGrace) / time.Second)
	income := ComputeIncome(prev)
	click := ComputeClickValue(prev)

	perSecond := income + MaxClicksPerSecond*click
	bonuses := (secs/int64(BonusMinDelay/time.Second) + 1) * income * BonusMaxMultiplier

	var fixed int64
	for _, r := range DailyRewards {
		fixed = max(fixed, r)
	}
	for _, a := range Achievements {
		fixed += a.Reward
	}
	fixed += ReferralBonusBux
	// One boundary-resolved top-tier launch per step interval is far above any real run.
	launches := secs * int64(LaunchUpperBound*5*0.15)

	return PlausibilitySlack*(perSecond*secs+bonuses) + fixed + launches
}

// Plausible reports whether next's balance could have been reached from prev in elapsed.
func Plausible(prev, next PlayerState, elapsed time.Duration) bool {
	gain := next.Balance - prev.Balance
	if gain <= 0 {
		return true
	}
	return gain <= MaxPlausibleGain(prev, elapsed)
}
