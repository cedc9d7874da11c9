package game

type StaffKind string

const (
	StaffClicker StaffKind = "clicker"
	StaffLuck    StaffKind = "luck"
)

type Upgrade struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	BaseCost   int64  `json:"base_cost"`
	BaseIncome int64  `json:"base_income"`
}

type Asset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Cost       int64  `json:"cost"`
	ClickBonus int64  `json:"click_bonus"`
	Order      int    `json:"order"`
}

type Staff struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Cost   int64     `json:"cost"`
	Kind   StaffKind `json:"kind"`
	Clicks int64     `json:"clicks_per_second,omitempty"`
	Luck   float64   `json:"luck,omitempty"`
}

type AchievementKind string

const (
	AchieveClicks      AchievementKind = "clicks"
	AchieveUpgrades    AchievementKind = "upgrades"
	AchievePrestiges   AchievementKind = "prestiges"
	AchieveEarned      AchievementKind = "earned"
	AchieveAllUpgrades AchievementKind = "all_upgrades"
)

type Achievement struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        AchievementKind `json:"kind"`
	Requirement int64           `json:"requirement"`
	Reward      int64           `json:"reward"`
}

var Upgrades = []Upgrade{
	{ID: 1, Name: "Spam 'GM' Bot", BaseCost: 15, BaseIncome: 1},
	{ID: 2, Name: "Paid Blue Check", BaseCost: 100, BaseIncome: 5},
	{ID: 3, Name: "Discord Mod", BaseCost: 500, BaseIncome: 25},
	{ID: 4, Name: "Rug Pull Radar", BaseCost: 2000, BaseIncome: 100},
	{ID: 5, Name: "Influencer DM", BaseCost: 10000, BaseIncome: 450},
}

// Assets are listed in purchase order; each requires the previous one.
var Assets = []Asset{
	{ID: "rolex", Name: "Gold Rolex", Cost: 50_000, ClickBonus: 99, Order: 0},
	{ID: "designer", Name: "Designer Drip", Cost: 250_000, ClickBonus: 400, Order: 1},
	{ID: "lambo", Name: "Lambo", Cost: 1_000_000, ClickBonus: 1500, Order: 2},
	{ID: "yacht", Name: "Yacht", Cost: 5_000_000, ClickBonus: 8000, Order: 3},
	{ID: "jet", Name: "Private Jet", Cost: 20_000_000, ClickBonus: 20_000, Order: 4},
	{ID: "penthouse", Name: "Penthouse", Cost: 35_000_000, ClickBonus: 22_000, Order: 5},
	{ID: "island", Name: "Private Island", Cost: 150_000_000, ClickBonus: 50_000, Order: 6},
	{ID: "moon", Name: "Moon Base", Cost: 500_000_000, ClickBonus: 400_000, Order: 7},
}

var StaffRoster = []Staff{
	{ID: "intern", Name: "Unpaid Intern", Cost: 1000, Kind: StaffClicker, Clicks: 1},
	{ID: "mod", Name: "Discord Mod", Cost: 5000, Kind: StaffClicker, Clicks: 3},
	{ID: "dev", Name: "Rust Dev", Cost: 15_000, Kind: StaffClicker, Clicks: 10},
	{ID: "marketer", Name: "Marketing Guru", Cost: 35_000, Kind: StaffClicker, Clicks: 25},
	{ID: "quant", Name: "Quant Trader", Cost: 75_000, Kind: StaffLuck, Luck: 0.05},
	{ID: "solidity", Name: "Solidity Dev", Cost: 150_000, Kind: StaffClicker, Clicks: 100},
	{ID: "cex", Name: "CEX Manager", Cost: 500_000, Kind: StaffLuck, Luck: 0.10},
}

var Achievements = []Achievement{
	{ID: "first-click", Name: "First Click", Kind: AchieveClicks, Requirement: 1, Reward: 50},
	{ID: "century-clicker", Name: "Century Clicker", Kind: AchieveClicks, Requirement: 100, Reward: 500},
	{ID: "click-master", Name: "Click Master", Kind: AchieveClicks, Requirement: 1000, Reward: 2500},
	{ID: "investor", Name: "Investor", Kind: AchieveUpgrades, Requirement: 1, Reward: 100},
	{ID: "portfolio-builder", Name: "Portfolio Builder", Kind: AchieveAllUpgrades, Requirement: 1, Reward: 10_000},
	{ID: "exit-scam", Name: "Exit Scam", Kind: AchievePrestiges, Requirement: 1, Reward: 1000},
	{ID: "millionaire", Name: "Millionaire", Kind: AchieveEarned, Requirement: 1_000_000, Reward: 5000},
	{ID: "billionaire", Name: "Billionaire", Kind: AchieveEarned, Requirement: 1_000_000_000, Reward: 50_000},
}

var DailyRewards = []int64{100, 250, 500, 1000, 2500, 5000, 10_000}

func UpgradeByID(id int) (Upgrade, bool) {
	for _, u := range Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

func AssetByID(id string) (Asset, bool) {
	for _, a := range Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

func StaffByID(id string) (Staff, bool) {
	for _, s := range StaffRoster {
		if s.ID == id {
			return s, true
		}
	}
	return Staff{}, false
}

func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
