package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	IncomeScalingRate = 1.20
	CostScalingRate   = 1.50
	MaxUpgradeLevel   = 50

	ClickFollowerRate   = 0.005
	SpecialFollowerRate = 0.01
	SpecialUpgradeID    = 2
	CloutMultiplierStep = 0.5

	PrestigeThreshold = int64(10_000_000)

	DefaultFollowers = int64(1)

	ReferralBonusBux       = int64(1000)
	ReferralBonusFollowers = int64(50)

	MinUsernameLen = 3
	MaxUsernameLen = 15
)

const (
	MaxOfflineWindow = 24 * time.Hour
	DailyCooldown    = 20 * time.Hour
	DailyStreakReset = 48 * time.Hour
)

var (
	ErrUnknownItem       = errors.New("unknown catalog item")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMaxLevel          = errors.New("upgrade is at max level")
	ErrPrerequisite      = errors.New("previous asset must be owned first")
	ErrPrestigeLocked    = errors.New("prestige requires 10M balance")
	ErrUsernameRequired  = errors.New("username required before play")
	ErrInvalidUsername   = errors.New("username must be 3-15 characters")
	ErrNotUnlocked       = errors.New("achievement not unlocked")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrDailyCooldown     = errors.New("daily reward not ready")
	ErrNothingToCollect  = errors.New("nothing to collect")
	ErrBonusNotArmed     = errors.New("no bonus to collect")
	ErrLaunchState       = errors.New("launch is not in the required phase")
	ErrLaunchName        = errors.New("coin name is required")
)

// IsRejection reports whether err is a domain-rule rejection that leaves state untouched.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrUnknownItem, ErrInsufficientFunds, ErrMaxLevel, ErrPrerequisite,
		ErrPrestigeLocked, ErrUsernameRequired, ErrInvalidUsername, ErrNotUnlocked,
		ErrAlreadyClaimed, ErrDailyCooldown, ErrNothingToCollect, ErrBonusNotArmed,
		ErrLaunchState, ErrLaunchName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func ValidateUsername(name string) (string, error) {
	clean := strings.TrimSpace(name)
	n := utf8.RuneCountInString(clean)
	if n < MinUsernameLen || n > MaxUsernameLen {
		return "", ErrInvalidUsername
	}
	return clean, nil
}

// UpgradeCost is floor(baseCost * 1.5^level).
func UpgradeCost(baseCost int64, level int) int64 {
	if level <= 0 {
		return baseCost
	}
	return int64(math.Floor(float64(baseCost) * math.Pow(CostScalingRate, float64(level))))
}

// UpgradeIncome is floor(baseIncome * 1.2^(level-1)) for an owned upgrade.
func UpgradeIncome(baseIncome int64, level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(math.Floor(float64(baseIncome) * math.Pow(IncomeScalingRate, float64(level-1))))
}

func BaseClickValue(followers int64) int64 {
	return 1 + int64(math.Floor(float64(followers)*ClickFollowerRate))
}

func CloutMultiplier(clout int64) float64 {
	return 1 + float64(clout)*CloutMultiplierStep
}

func applyClout(v int64, clout int64) int64 {
	return int64(math.Floor(float64(v) * CloutMultiplier(clout)))
}

// FormatBux renders an amount with the short suffixes used across the client.
func FormatBux(n int64) string {
	f := float64(n)
	switch {
	case f >= 1e15:
		return fmt.Sprintf("%.2fQa", f/1e15)
	case f >= 1e12:
		return fmt.Sprintf("%.2fT", f/1e12)
	case f >= 1e9:
		return fmt.Sprintf("%.2fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.2fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.1fk", f/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}
