package game

import (
	"math"
	"strings"

	"bricks/internal/events"
)

type LaunchPhase string

const (
	LaunchDraft    LaunchPhase = "draft"
	LaunchLive     LaunchPhase = "live"
	LaunchResolved LaunchPhase = "resolved"
)

const (
	LaunchMinCost     = int64(500)
	LaunchMaxCost     = int64(50_000)
	LaunchCostRate    = 0.001
	LaunchPriceFloor  = 100.0
	LaunchLowerBound  = 500.0
	LaunchUpperBound  = 1_000_000.0
	LaunchChartPoints = 20
	launchStartCap    = 5000.0
)

// LaunchOutcome describes how a round ended.
type LaunchOutcome string

const (
	OutcomeSold     LaunchOutcome = "sold"
	OutcomeRugged   LaunchOutcome = "rugged"
	OutcomeBoundary LaunchOutcome = "boundary"
)

type launchRound struct {
	phase   LaunchPhase
	name    string
	ticker  string
	tier    int
	luck    float64
	price   float64
	chart   []float64
	devBag  int64
	outcome LaunchOutcome
	payout  int64
}

type LaunchView struct {
	Phase   LaunchPhase   `json:"phase"`
	Name    string        `json:"name,omitempty"`
	Ticker  string        `json:"ticker,omitempty"`
	Tier    int           `json:"tier"`
	Cost    int64         `json:"cost"`
	Luck    float64       `json:"luck"`
	Price   float64       `json:"price"`
	Chart   []float64     `json:"chart,omitempty"`
	DevBag  int64         `json:"dev_bag"`
	Outcome LaunchOutcome `json:"outcome,omitempty"`
	Payout  int64         `json:"payout"`
}

var coinNames = []struct{ name, ticker string }{
	{"ScamCoin", "$SCAM"}, {"MoonInu", "$MOON"}, {"ElonTusk", "$TUSK"}, {"DogeKiller", "$KILL"},
	{"SafeMars", "$SAFE"}, {"BrickToken", "$BRICK"}, {"RugPull", "$RUG"}, {"YoloBet", "$YOLO"},
	{"BasedGod", "$BASED"}, {"WAGMI", "$WAGMI"}, {"NGMI", "$NGMI"}, {"HODL", "$HODL"},
}

func newLaunchRound() launchRound {
	return launchRound{phase: LaunchDraft}
}

func LaunchCost(balance int64) int64 {
	cost := int64(math.Floor(float64(balance) * LaunchCostRate))
	return min(max(cost, LaunchMinCost), LaunchMaxCost)
}

// WealthTier maps a balance to the launch tier: 1 below 10k, 2 from 10k, 3 from 100k, 5 from 1M.
func WealthTier(balance int64) int {
	switch {
	case balance >= 1_000_000:
		return 5
	case balance >= 100_000:
		return 3
	case balance >= 10_000:
		return 2
	default:
		return 1
	}
}

// LaunchLuck sums luck staff plus the tier bonus.
func LaunchLuck(s PlayerState, tier int) float64 {
	luck := float64(tier) * 0.02
	for _, st := range StaffRoster {
		if st.Kind == StaffLuck && s.OwnedStaff[st.ID] {
			luck += st.Luck
		}
	}
	return luck
}

// RandomCoinName picks a name and ticker for the draft form.
func (e *Engine) RandomCoinName() (string, string) {
	c := coinNames[e.rand.Intn(len(coinNames))]
	return c.name, c.ticker
}

func (e *Engine) Launch() LaunchView {
	r := e.launch
	v := LaunchView{
		Phase:   r.phase,
		Name:    r.name,
		Ticker:  r.ticker,
		Tier:    r.tier,
		Luck:    r.luck,
		Price:   r.price,
		Chart:   append([]float64(nil), r.chart...),
		DevBag:  r.devBag,
		Outcome: r.outcome,
		Payout:  r.payout,
	}
	if r.phase == LaunchDraft {
		v.Tier = WealthTier(e.state.Balance)
		v.Luck = LaunchLuck(e.state, v.Tier)
		v.Cost = LaunchCost(e.state.Balance)
	}
	return v
}

// StartLaunch pays the entry cost and moves the round to Live. The tier is fixed here.
func (e *Engine) StartLaunch(name, ticker string) error {
	if err := e.requireUsername(); err != nil {
		return err
	}
	if e.launch.phase != LaunchDraft {
		return ErrLaunchState
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrLaunchName
	}
	cost := LaunchCost(e.state.Balance)
	tier := WealthTier(e.state.Balance)
	if !e.debit(cost) {
		return ErrInsufficientFunds
	}
	start := launchStartCap * (float64(tier)*0.5 + 1)
	e.launch = launchRound{
		phase:  LaunchLive,
		name:   name,
		ticker: strings.TrimSpace(ticker),
		tier:   tier,
		luck:   LaunchLuck(e.state, tier),
		price:  start,
		chart:  []float64{start},
	}
	e.recompute()
	e.publish(events.Purchased, cost, "launch:"+name)
	return nil
}

// StepLaunch advances the price series one tick. It resolves the round when the
// price leaves the tier's band and reports whether that happened.
func (e *Engine) StepLaunch() (bool, error) {
	r := &e.launch
	if r.phase != LaunchLive {
		return false, ErrLaunchState
	}
	tier := float64(r.tier)
	prev := r.price
	volatility := 1 + tier*0.2
	change := (e.rand.Float64() - 0.48 + r.luck) * 0.1 * prev * volatility

	var spike float64
	if e.rand.Float64() > 0.95-tier*0.02 {
		spike = prev * (0.3 + tier*0.1)
	} else if e.rand.Float64() > 0.98-tier*0.01 {
		spike = -prev * (0.4 - tier*0.05)
	}

	v := math.Max(LaunchPriceFloor, prev+change+spike)
	r.price = v
	r.chart = append(r.chart, v)
	if len(r.chart) > LaunchChartPoints {
		r.chart = r.chart[len(r.chart)-LaunchChartPoints:]
	}
	r.devBag = int64(math.Floor(v * (0.05 + tier*0.02)))

	if v < LaunchLowerBound || v > LaunchUpperBound*tier {
		e.resolveLaunch(OutcomeBoundary)
		return true, nil
	}
	return false, nil
}

func (e *Engine) SellLaunch() (int64, error) {
	if e.launch.phase != LaunchLive {
		return 0, ErrLaunchState
	}
	return e.resolveLaunch(OutcomeSold), nil
}

func (e *Engine) RugLaunch() (int64, error) {
	if e.launch.phase != LaunchLive {
		return 0, ErrLaunchState
	}
	return e.resolveLaunch(OutcomeRugged), nil
}

func (e *Engine) resolveLaunch(outcome LaunchOutcome) int64 {
	r := &e.launch
	payout := r.devBag
	if payout > 0 {
		e.credit(payout)
		factor := 1.1
		if outcome == OutcomeRugged {
			factor = 0.9
		}
		e.state.Followers = max(DefaultFollowers, int64(math.Floor(float64(e.state.Followers)*factor)))
	}
	r.phase = LaunchResolved
	r.outcome = outcome
	r.payout = payout
	e.recompute()
	e.publish(events.LaunchResolved, payout, string(outcome))
	return payout
}

// ResetLaunch returns a resolved round to Draft.
func (e *Engine) ResetLaunch() error {
	if e.launch.phase != LaunchResolved {
		return ErrLaunchState
	}
	e.launch = newLaunchRound()
	return nil
}
