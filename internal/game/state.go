package game

import (
	"maps"
	"slices"
	"time"
)

// PlayerState is the single mutable aggregate of a player's game.
type PlayerState struct {
	Balance       int64
	Followers     int64
	CloutLevel    int64
	UpgradeLevels map[int]int
	OwnedAssets   map[string]bool
	OwnedStaff    map[string]bool
	Username      string

	TotalClicks        int64
	TotalEarned        int64
	HighestBalance     int64
	TotalSpent         int64
	TotalPrestiges     int64
	TotalSecondsPlayed int64

	DailyStreak      int
	LastDailyClaimAt *time.Time

	AchievementsClaimed []string

	LastOnlineAt time.Time
	StartedAt    time.Time

	// UncollectedOffline is offline income shown but not yet collected.
	UncollectedOffline int64
}

func DefaultState(now time.Time) PlayerState {
	now = now.UTC()
	return PlayerState{
		Followers:     DefaultFollowers,
		UpgradeLevels: map[int]int{},
		OwnedAssets:   map[string]bool{},
		OwnedStaff:    map[string]bool{},
		LastOnlineAt:  now,
		StartedAt:     now,
	}
}

// Clone returns a deep copy.
func (s PlayerState) Clone() PlayerState {
	out := s
	out.UpgradeLevels = maps.Clone(s.UpgradeLevels)
	if out.UpgradeLevels == nil {
		out.UpgradeLevels = map[int]int{}
	}
	out.OwnedAssets = maps.Clone(s.OwnedAssets)
	if out.OwnedAssets == nil {
		out.OwnedAssets = map[string]bool{}
	}
	out.OwnedStaff = maps.Clone(s.OwnedStaff)
	if out.OwnedStaff == nil {
		out.OwnedStaff = map[string]bool{}
	}
	out.AchievementsClaimed = slices.Clone(s.AchievementsClaimed)
	if s.LastDailyClaimAt != nil {
		t := *s.LastDailyClaimAt
		out.LastDailyClaimAt = &t
	}
	return out
}

func (s PlayerState) TotalUpgradeLevels() int64 {
	var total int64
	for _, lvl := range s.UpgradeLevels {
		total += int64(lvl)
	}
	return total
}

func (s PlayerState) hasClaimed(id string) bool {
	return slices.Contains(s.AchievementsClaimed, id)
}

// normalize enforces the invariants on a state that came from outside the engine.
func (s *PlayerState) normalize() {
	if s.Balance < 0 {
		s.Balance = 0
	}
	if s.Followers < DefaultFollowers {
		s.Followers = DefaultFollowers
	}
	if s.CloutLevel < 0 {
		s.CloutLevel = 0
	}
	if s.UpgradeLevels == nil {
		s.UpgradeLevels = map[int]int{}
	}
	for id, lvl := range s.UpgradeLevels {
		if _, ok := UpgradeByID(id); !ok || lvl <= 0 {
			delete(s.UpgradeLevels, id)
			continue
		}
		if lvl > MaxUpgradeLevel {
			s.UpgradeLevels[id] = MaxUpgradeLevel
		}
	}
	if s.OwnedAssets == nil {
		s.OwnedAssets = map[string]bool{}
	}
	// Drop any asset whose prerequisite chain is broken.
	chainIntact := true
	for _, a := range Assets {
		if !s.OwnedAssets[a.ID] {
			chainIntact = false
			delete(s.OwnedAssets, a.ID)
			continue
		}
		if !chainIntact {
			delete(s.OwnedAssets, a.ID)
		}
	}
	for id := range s.OwnedAssets {
		if _, ok := AssetByID(id); !ok {
			delete(s.OwnedAssets, id)
		}
	}
	if s.OwnedStaff == nil {
		s.OwnedStaff = map[string]bool{}
	}
	for id, owned := range s.OwnedStaff {
		if _, ok := StaffByID(id); !ok || !owned {
			delete(s.OwnedStaff, id)
		}
	}
	if s.DailyStreak < 0 {
		s.DailyStreak = 0
	}
	if s.DailyStreak > len(DailyRewards) {
		s.DailyStreak = len(DailyRewards)
	}
	if s.UncollectedOffline < 0 {
		s.UncollectedOffline = 0
	}
	if s.HighestBalance < s.Balance {
		s.HighestBalance = s.Balance
	}
}
