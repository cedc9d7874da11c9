package game

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
)

const (
	// SnapshotLegacy is the layout written by the web client: no version key and
	// items/staff stored as id->count maps.
	SnapshotLegacy = 0
	// SnapshotCurrent stores owned items and staff as id lists.
	SnapshotCurrent = 1
)

type snapshotV1 struct {
	Version             int            `json:"version"`
	Bux                 int64          `json:"bux"`
	Followers           int64          `json:"followers"`
	Clout               int64          `json:"clout"`
	Upgrades            map[string]int `json:"upgrades"`
	Items               []string       `json:"items"`
	Staff               []string       `json:"staff"`
	Username            string         `json:"username"`
	TotalClicks         int64          `json:"totalClicks"`
	TotalEarned         int64          `json:"totalEarned"`
	HighestBalance      int64          `json:"highestBalance"`
	TotalSpent          int64          `json:"totalSpent"`
	TotalPrestiges      int64          `json:"totalPrestiges"`
	TotalTimePlayed     int64          `json:"totalTimePlayed"`
	DailyStreak         int            `json:"dailyStreak"`
	LastDailyClaim      *time.Time     `json:"lastDailyClaim"`
	AchievementsClaimed []string       `json:"achievementsClaimed"`
	LastOnline          time.Time      `json:"lastOnline"`
	StartDate           time.Time      `json:"startDate"`
	PendingOffline      int64          `json:"pendingOffline"`
}

// rawSnapshot accepts both layouts; a nil field means "absent, use the default".
type rawSnapshot struct {
	Version             *int                   `json:"version"`
	Bux                 *json.Number           `json:"bux"`
	Followers           *json.Number           `json:"followers"`
	Clout               *json.Number           `json:"clout"`
	Upgrades            map[string]json.Number `json:"upgrades"`
	Items               json.RawMessage        `json:"items"`
	Staff               json.RawMessage        `json:"staff"`
	Username            *string                `json:"username"`
	TotalClicks         *json.Number           `json:"totalClicks"`
	TotalEarned         *json.Number           `json:"totalEarned"`
	HighestBalance      *json.Number           `json:"highestBalance"`
	TotalSpent          *json.Number           `json:"totalSpent"`
	TotalPrestiges      *json.Number           `json:"totalPrestiges"`
	TotalTimePlayed     *json.Number           `json:"totalTimePlayed"`
	DailyStreak         *json.Number           `json:"dailyStreak"`
	LastDailyClaim      *string                `json:"lastDailyClaim"`
	AchievementsClaimed []string               `json:"achievementsClaimed"`
	LastOnline          *string                `json:"lastOnline"`
	StartDate           *string                `json:"startDate"`
	PendingOffline      *json.Number           `json:"pendingOffline"`
}

// EncodeSnapshot serializes a state in the current layout.
func EncodeSnapshot(s PlayerState) ([]byte, error) {
	snap := snapshotV1{
		Version:             SnapshotCurrent,
		Bux:                 s.Balance,
		Followers:           s.Followers,
		Clout:               s.CloutLevel,
		Upgrades:            make(map[string]int, len(s.UpgradeLevels)),
		Items:               ownedIDs(s.OwnedAssets),
		Staff:               ownedIDs(s.OwnedStaff),
		Username:            s.Username,
		TotalClicks:         s.TotalClicks,
		TotalEarned:         s.TotalEarned,
		HighestBalance:      s.HighestBalance,
		TotalSpent:          s.TotalSpent,
		TotalPrestiges:      s.TotalPrestiges,
		TotalTimePlayed:     s.TotalSecondsPlayed,
		DailyStreak:         s.DailyStreak,
		LastDailyClaim:      s.LastDailyClaimAt,
		AchievementsClaimed: s.AchievementsClaimed,
		LastOnline:          s.LastOnlineAt,
		StartDate:           s.StartedAt,
		PendingOffline:      s.UncollectedOffline,
	}
	for id, lvl := range s.UpgradeLevels {
		snap.Upgrades[strconv.Itoa(id)] = lvl
	}
	if snap.AchievementsClaimed == nil {
		snap.AchievementsClaimed = []string{}
	}
	return json.Marshal(snap)
}

func (e *Engine) Snapshot() ([]byte, error) {
	return EncodeSnapshot(e.state)
}

func ownedIDs(owned map[string]bool) []string {
	ids := make([]string, 0, len(owned))
	for id, ok := range owned {
		if ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Reconcile merges a persisted snapshot over defaults field by field. Absent
// fields keep their default; unknown fields are ignored.
func Reconcile(raw []byte, defaults PlayerState) (PlayerState, error) {
	out := defaults.Clone()
	if len(raw) == 0 {
		return out, nil
	}
	var snap rawSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return out, fmt.Errorf("decode snapshot: %w", err)
	}
	version := SnapshotLegacy
	if snap.Version != nil {
		version = *snap.Version
	}
	if version > SnapshotCurrent {
		return out, fmt.Errorf("snapshot version %d is newer than supported %d", version, SnapshotCurrent)
	}

	setInt(&out.Balance, snap.Bux)
	setInt(&out.Followers, snap.Followers)
	setInt(&out.CloutLevel, snap.Clout)
	setInt(&out.TotalClicks, snap.TotalClicks)
	setInt(&out.TotalEarned, snap.TotalEarned)
	setInt(&out.HighestBalance, snap.HighestBalance)
	setInt(&out.TotalSpent, snap.TotalSpent)
	setInt(&out.TotalPrestiges, snap.TotalPrestiges)
	setInt(&out.TotalSecondsPlayed, snap.TotalTimePlayed)
	setInt(&out.UncollectedOffline, snap.PendingOffline)
	if snap.DailyStreak != nil {
		out.DailyStreak = int(numberToInt(*snap.DailyStreak))
	}
	if snap.Username != nil {
		out.Username = *snap.Username
	}
	if snap.Upgrades != nil {
		out.UpgradeLevels = map[int]int{}
		for key, lvl := range snap.Upgrades {
			id, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			out.UpgradeLevels[id] = int(numberToInt(lvl))
		}
	}
	if owned, ok := decodeOwned(snap.Items); ok {
		out.OwnedAssets = owned
	}
	if owned, ok := decodeOwned(snap.Staff); ok {
		out.OwnedStaff = owned
	}
	if len(snap.AchievementsClaimed) > 0 {
		out.AchievementsClaimed = slices.Clone(snap.AchievementsClaimed)
	}
	if snap.LastDailyClaim != nil {
		if t, ok := parseTime(*snap.LastDailyClaim); ok {
			out.LastDailyClaimAt = &t
		}
	}
	if snap.LastOnline != nil {
		if t, ok := parseTime(*snap.LastOnline); ok {
			out.LastOnlineAt = t
		}
	}
	if snap.StartDate != nil {
		if t, ok := parseTime(*snap.StartDate); ok {
			out.StartedAt = t
		}
	}
	out.normalize()
	return out, nil
}

func setInt(dst *int64, v *json.Number) {
	if v != nil {
		*dst = numberToInt(*v)
	}
}

// numberToInt accepts integral and fractional JSON numbers; fractions are floored.
func numberToInt(n json.Number) int64 {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int64(math.Floor(f))
}

func parseTime(v string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// decodeOwned reads either an id list (current) or an id->count map (legacy).
func decodeOwned(raw json.RawMessage) (map[string]bool, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	owned := map[string]bool{}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		for _, id := range ids {
			owned[id] = true
		}
		return owned, true
	}
	var counts map[string]json.Number
	if err := json.Unmarshal(raw, &counts); err == nil {
		for id, n := range counts {
			if numberToInt(n) > 0 {
				owned[id] = true
			}
		}
		return owned, true
	}
	return nil, false
}
