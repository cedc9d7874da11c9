package game

import (
	"context"
	"log/slog"
	"math"
	mathrand "math/rand"
	"time"

	"bricks/internal/clock"
	"bricks/internal/events"
)

// ScoreSink receives the best-score record submitted right before a prestige reset.
type ScoreSink interface {
	SubmitScore(ctx context.Context, rec ScoreRecord) error
}

type Options struct {
	Logger *slog.Logger
	Rand   *mathrand.Rand
	Clock  clock.Clock
	Bus    *events.Bus
	Sink   ScoreSink
}

// Engine owns a PlayerState. It is not safe for concurrent use; runtime.Loop
// serializes every call onto one goroutine.
type Engine struct {
	log   *slog.Logger
	rand  *mathrand.Rand
	clock clock.Clock
	bus   *events.Bus
	sink  ScoreSink

	state  PlayerState
	income int64

	bonus  bonusSlot
	launch launchRound
}

func NewEngine(state PlayerState, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Rand == nil {
		opts.Rand = mathrand.New(mathrand.NewSource(opts.Clock.Now().UnixNano()))
	}
	st := state.Clone()
	st.normalize()
	e := &Engine{
		log:   opts.Logger,
		rand:  opts.Rand,
		clock: opts.Clock,
		bus:   opts.Bus,
		sink:  opts.Sink,
		state: st,
	}
	e.recompute()
	e.settleOffline(e.clock.Now())
	e.launch = newLaunchRound()
	return e
}

// State returns a deep copy of the current state.
func (e *Engine) State() PlayerState {
	return e.state.Clone()
}

func (e *Engine) IncomePerSecond() int64 {
	return e.income
}

// ComputeIncome evaluates passive income for any state.
func ComputeIncome(s PlayerState) int64 {
	var income int64
	for _, u := range Upgrades {
		if lvl := s.UpgradeLevels[u.ID]; lvl > 0 {
			income += UpgradeIncome(u.BaseIncome, lvl)
		}
	}
	if s.UpgradeLevels[SpecialUpgradeID] > 0 {
		income += int64(math.Floor(float64(s.Followers) * SpecialFollowerRate))
	}
	base := BaseClickValue(s.Followers)
	var clicksPerSecond int64
	for _, st := range StaffRoster {
		if st.Kind == StaffClicker && s.OwnedStaff[st.ID] {
			clicksPerSecond += st.Clicks
		}
	}
	income += clicksPerSecond * base
	return applyClout(income, s.CloutLevel)
}

// ComputeClickValue evaluates the per-tap reward for any state.
func ComputeClickValue(s PlayerState) int64 {
	v := BaseClickValue(s.Followers)
	for _, a := range Assets {
		if s.OwnedAssets[a.ID] {
			v += a.ClickBonus
		}
	}
	return applyClout(v, s.CloutLevel)
}

func (e *Engine) ClickValue() int64 {
	return ComputeClickValue(e.state)
}

func (e *Engine) recompute() {
	e.income = ComputeIncome(e.state)
}

// credit adds to balance and moves the watermark.
func (e *Engine) credit(amount int64) {
	if amount <= 0 {
		return
	}
	e.state.Balance += amount
	if e.state.Balance > e.state.HighestBalance {
		e.state.HighestBalance = e.state.Balance
	}
}

func (e *Engine) debit(cost int64) bool {
	if cost < 0 || e.state.Balance < cost {
		return false
	}
	e.state.Balance -= cost
	e.state.TotalSpent += cost
	return true
}

func (e *Engine) publish(t events.Type, amount int64, ref string) {
	e.bus.Publish(events.Event{Type: t, At: e.clock.Now(), Amount: amount, Ref: ref})
}

func (e *Engine) requireUsername() error {
	if e.state.Username == "" {
		return ErrUsernameRequired
	}
	return nil
}

func (e *Engine) Click() (int64, error) {
	if err := e.requireUsername(); err != nil {
		return 0, err
	}
	v := e.ClickValue()
	e.credit(v)
	e.state.TotalClicks++
	e.state.TotalEarned += v
	e.recompute()
	e.publish(events.Clicked, v, "")
	return v, nil
}

// UpgradeCost returns the price of the next level of upgrade id.
func (e *Engine) UpgradeCost(id int) (int64, error) {
	u, ok := UpgradeByID(id)
	if !ok {
		return 0, ErrUnknownItem
	}
	return UpgradeCost(u.BaseCost, e.state.UpgradeLevels[id]), nil
}

func (e *Engine) BuyUpgrade(id int) error {
	if err := e.requireUsername(); err != nil {
		return err
	}
	u, ok := UpgradeByID(id)
	if !ok {
		return ErrUnknownItem
	}
	lvl := e.state.UpgradeLevels[id]
	if lvl >= MaxUpgradeLevel {
		return ErrMaxLevel
	}
	cost := UpgradeCost(u.BaseCost, lvl)
	if !e.debit(cost) {
		return ErrInsufficientFunds
	}
	e.state.UpgradeLevels[id] = lvl + 1
	e.state.Followers += u.BaseIncome * 2
	e.recompute()
	e.publish(events.Purchased, cost, "upgrade:"+u.Name)
	return nil
}

func (e *Engine) BuyAsset(id string) error {
	if err := e.requireUsername(); err != nil {
		return err
	}
	a, ok := AssetByID(id)
	if !ok {
		return ErrUnknownItem
	}
	if e.state.OwnedAssets[id] {
		return nil
	}
	if a.Order > 0 && !e.state.OwnedAssets[Assets[a.Order-1].ID] {
		return ErrPrerequisite
	}
	if !e.debit(a.Cost) {
		return ErrInsufficientFunds
	}
	e.state.OwnedAssets[id] = true
	e.recompute()
	e.publish(events.Purchased, a.Cost, "asset:"+a.ID)
	return nil
}

func (e *Engine) BuyStaff(id string) error {
	if err := e.requireUsername(); err != nil {
		return err
	}
	st, ok := StaffByID(id)
	if !ok {
		return ErrUnknownItem
	}
	if e.state.OwnedStaff[id] {
		return nil
	}
	if !e.debit(st.Cost) {
		return ErrInsufficientFunds
	}
	e.state.OwnedStaff[id] = true
	e.recompute()
	e.publish(events.Purchased, st.Cost, "staff:"+st.ID)
	return nil
}

// TickIncome applies one second of passive income.
func (e *Engine) TickIncome() int64 {
	if e.income <= 0 {
		return 0
	}
	e.credit(e.income)
	return e.income
}

// TickPlaytime counts one played second. It never looks at the wall clock.
func (e *Engine) TickPlaytime() {
	e.state.TotalSecondsPlayed++
}

// MarkOnline stamps lastOnlineAt; called at teardown and before every save.
func (e *Engine) MarkOnline() {
	e.state.LastOnlineAt = e.clock.Now().UTC()
}

func (e *Engine) offlineEarnings(now time.Time) int64 {
	if e.state.LastOnlineAt.IsZero() {
		return 0
	}
	gap := now.Sub(e.state.LastOnlineAt)
	if gap <= 0 {
		return 0
	}
	gap = min(gap, MaxOfflineWindow)
	return int64(gap/time.Second) * e.income
}

// settleOffline adds the income earned since lastOnlineAt to whatever an
// earlier session left uncollected. Only the new part is capped.
func (e *Engine) settleOffline(now time.Time) {
	stored := e.state.UncollectedOffline
	limit := max(stored, int64(MaxOfflineWindow/time.Second)*e.income)
	e.state.UncollectedOffline = min(stored+e.offlineEarnings(now), limit)
}

func (e *Engine) PendingOffline() int64 {
	return e.state.UncollectedOffline
}

func (e *Engine) CollectOffline() (int64, error) {
	amount := e.state.UncollectedOffline
	if amount <= 0 {
		return 0, ErrNothingToCollect
	}
	e.state.UncollectedOffline = 0
	e.credit(amount)
	e.recompute()
	e.publish(events.OfflineCollected, amount, "")
	return amount, nil
}

func (e *Engine) CanPrestige() bool {
	return e.state.Balance >= PrestigeThreshold
}

// Prestige trades the balance for clout. The score submission happens before the
// reset and its failure never blocks it.
func (e *Engine) Prestige(ctx context.Context) (int64, error) {
	if err := e.requireUsername(); err != nil {
		return 0, err
	}
	if !e.CanPrestige() {
		return 0, ErrPrestigeLocked
	}
	earned := e.state.Balance / PrestigeThreshold
	rec := ScoreRecord{
		Username:   e.state.Username,
		Balance:    e.state.Balance,
		CloutLevel: e.state.CloutLevel + earned,
	}
	if e.sink != nil {
		if err := e.sink.SubmitScore(ctx, rec); err != nil {
			e.log.Warn("leaderboard submit failed", "username", rec.Username, "error", err)
			e.publish(events.LeaderboardRejected, rec.Balance, err.Error())
		}
	}

	e.state.Balance = 0
	e.state.Followers = DefaultFollowers
	e.state.UpgradeLevels = map[int]int{}
	e.state.OwnedAssets = map[string]bool{}
	e.state.OwnedStaff = map[string]bool{}
	e.state.CloutLevel += earned
	e.state.TotalPrestiges++
	e.state.UncollectedOffline = 0
	e.launch = newLaunchRound()
	e.recompute()
	e.publish(events.Prestiged, earned, rec.Username)
	return earned, nil
}

func (e *Engine) SetUsername(name string) error {
	clean, err := ValidateUsername(name)
	if err != nil {
		return err
	}
	e.state.Username = clean
	return nil
}

// ApplyWalletReward credits a server-side wallet quote.
func (e *Engine) ApplyWalletReward(r WalletReward) {
	if r.Bux > 0 {
		e.credit(r.Bux)
	}
	if r.Clout > 0 {
		e.state.CloutLevel += r.Clout
	}
	e.recompute()
	e.publish(events.RewardGranted, r.Bux, "wallet")
}

func (e *Engine) Stats() Stats {
	s := e.state
	return Stats{
		Balance:            s.Balance,
		Followers:          s.Followers,
		CloutLevel:         s.CloutLevel,
		IncomePerSecond:    e.income,
		ClickValue:         e.ClickValue(),
		TotalClicks:        s.TotalClicks,
		TotalEarned:        s.TotalEarned,
		HighestBalance:     s.HighestBalance,
		TotalSpent:         s.TotalSpent,
		TotalPrestiges:     s.TotalPrestiges,
		TotalSecondsPlayed: s.TotalSecondsPlayed,
		StartedAt:          s.StartedAt,
	}
}

// Reset discards all progress and starts again from defaults.
func (e *Engine) Reset() {
	e.state = DefaultState(e.clock.Now())
	e.bonus = bonusSlot{}
	e.launch = newLaunchRound()
	e.recompute()
}
