package game

import "time"

type Stats struct {
	Balance            int64     `json:"balance"`
	Followers          int64     `json:"followers"`
	CloutLevel         int64     `json:"clout_level"`
	IncomePerSecond    int64     `json:"income_per_second"`
	ClickValue         int64     `json:"click_value"`
	TotalClicks        int64     `json:"total_clicks"`
	TotalEarned        int64     `json:"total_earned"`
	HighestBalance     int64     `json:"highest_balance"`
	TotalSpent         int64     `json:"total_spent"`
	TotalPrestiges     int64     `json:"total_prestiges"`
	TotalSecondsPlayed int64     `json:"total_seconds_played"`
	StartedAt          time.Time `json:"started_at"`
}

// ScoreRecord is the best-score entry submitted to the leaderboard on prestige.
type ScoreRecord struct {
	Username   string `json:"username"`
	Balance    int64  `json:"balance"`
	CloutLevel int64  `json:"cloutLevel"`
}

type LeaderboardRow struct {
	Rank       int64  `json:"rank"`
	Username   string `json:"username"`
	Balance    int64  `json:"balance"`
	CloutLevel int64  `json:"cloutLevel"`
}

type AchievementView struct {
	Achievement
	Progress int64 `json:"progress"`
	Target   int64 `json:"target"`
	Unlocked bool  `json:"unlocked"`
	Claimed  bool  `json:"claimed"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BonusView struct {
	Armed      bool      `json:"armed"`
	Multiplier int64     `json:"multiplier"`
	Position   Position  `json:"position"`
	ExpiresAt  time.Time `json:"expires_at"`
	Remaining  int64     `json:"remaining_seconds"`
}

type DailyView struct {
	Streak   int           `json:"streak"`
	NextDay  int           `json:"next_day"`
	Reward   int64         `json:"reward"`
	CanClaim bool          `json:"can_claim"`
	ReadyIn  time.Duration `json:"ready_in"`
}

// WalletReward is a server-side quote the client applies on its own state.
type WalletReward struct {
	Bux    int64  `json:"bux"`
	Clout  int64  `json:"clout"`
	Reason string `json:"reason"`
}
