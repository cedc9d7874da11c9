package game

import "bricks/internal/events"

// AchievementProgress returns the current value measured by an achievement and
// the value it needs.
func AchievementProgress(s PlayerState, a Achievement) (int64, int64) {
	switch a.Kind {
	case AchieveClicks:
		return s.TotalClicks, a.Requirement
	case AchieveUpgrades:
		return s.TotalUpgradeLevels(), a.Requirement
	case AchievePrestiges:
		return s.TotalPrestiges, a.Requirement
	case AchieveEarned:
		return s.TotalEarned, a.Requirement
	case AchieveAllUpgrades:
		var owned int64
		for _, u := range Upgrades {
			if s.UpgradeLevels[u.ID] >= int(a.Requirement) {
				owned++
			}
		}
		return owned, int64(len(Upgrades))
	}
	return 0, 1
}

func AchievementUnlocked(s PlayerState, a Achievement) bool {
	progress, target := AchievementProgress(s, a)
	return progress >= target
}

func (e *Engine) Achievements() []AchievementView {
	out := make([]AchievementView, 0, len(Achievements))
	for _, a := range Achievements {
		progress, target := AchievementProgress(e.state, a)
		out = append(out, AchievementView{
			Achievement: a,
			Progress:    min(progress, target),
			Target:      target,
			Unlocked:    progress >= target,
			Claimed:     e.state.hasClaimed(a.ID),
		})
	}
	return out
}

func (e *Engine) ClaimAchievement(id string) (int64, error) {
	a, ok := AchievementByID(id)
	if !ok {
		return 0, ErrUnknownItem
	}
	if e.state.hasClaimed(id) {
		return 0, ErrAlreadyClaimed
	}
	if !AchievementUnlocked(e.state, a) {
		return 0, ErrNotUnlocked
	}
	e.state.AchievementsClaimed = append(e.state.AchievementsClaimed, id)
	e.credit(a.Reward)
	e.recompute()
	e.publish(events.AchievementClaimed, a.Reward, id)
	return a.Reward, nil
}

// ClaimAllAchievements claims every unlocked, unclaimed achievement and returns the total reward.
func (e *Engine) ClaimAllAchievements() int64 {
	var total int64
	for _, a := range Achievements {
		reward, err := e.ClaimAchievement(a.ID)
		if err != nil {
			continue
		}
		total += reward
	}
	return total
}
