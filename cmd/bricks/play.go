package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bricks/internal/events"
	"bricks/internal/game"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	refreshEvery = 250 * time.Millisecond
	maxLogLines  = 6
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("240"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	goldStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")).Blink(true)
)

type keyMap struct {
	Click    key.Binding
	Upgrade  key.Binding
	Asset    key.Binding
	Hire     key.Binding
	Golden   key.Binding
	Offline  key.Binding
	Daily    key.Binding
	Claim    key.Binding
	Launch   key.Binding
	Sell     key.Binding
	Rug      key.Binding
	Prestige key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Upgrade, k.Golden, k.Launch, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Click, k.Upgrade, k.Asset, k.Hire},
		{k.Golden, k.Offline},
		{k.Daily, k.Claim, k.Prestige},
		{k.Launch, k.Sell, k.Rug},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Click:    key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space", "tap brick")),
	Upgrade:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "buy upgrade")),
	Asset:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "buy next asset")),
	Hire:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hire next staff")),
	Golden:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grab golden brick")),
	Offline:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "collect offline")),
	Daily:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "daily reward")),
	Claim:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "claim achievements")),
	Launch:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "launch coin")),
	Sell:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sell")),
	Rug:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rug")),
	Prestige: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "prestige")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type snapshot struct {
	stats   game.Stats
	state   game.PlayerState
	bonus   game.BonusView
	launch  game.LaunchView
	daily   game.DailyView
	pending int64
}

type (
	refreshMsg  struct{}
	snapshotMsg snapshot
	eventMsg    events.Event
	noticeMsg   string
)

type playModel struct {
	ctx      context.Context
	app      *app
	events   <-chan events.Event
	snap     snapshot
	log      []string
	help     help.Model
	prestige progress.Model
	width    int
}

func newPlayCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the interactive terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("play needs an interactive terminal; try `bricks status`")
			}
			o := *opts
			o.interactive = true
			a, err := openApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			sub, unsubscribe := a.bus.Subscribe(64)
			m := playModel{
				ctx:      cmd.Context(),
				app:      a,
				events:   sub,
				help:     help.New(),
				prestige: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
			}
			_, runErr := tea.NewProgram(m, tea.WithAltScreen()).Run()
			unsubscribe()
			return errors.Join(runErr, a.close(context.Background()))
		},
	}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitEvent(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m playModel) fetch() tea.Cmd {
	return func() tea.Msg {
		var s snapshot
		err := m.app.do(m.ctx, func(e *game.Engine) error {
			now := m.app.clock.Now()
			s = snapshot{
				stats:   e.Stats(),
				state:   e.State(),
				bonus:   e.Bonus(now),
				launch:  e.Launch(),
				daily:   e.Daily(now),
				pending: e.PendingOffline(),
			}
			return nil
		})
		if err != nil {
			return noticeMsg(err.Error())
		}
		return snapshotMsg(s)
	}
}

func (m playModel) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// act runs fn on the engine and reports its outcome as a notice.
func (m playModel) act(fn func(e *game.Engine) (string, error)) tea.Cmd {
	return func() tea.Msg {
		var notice string
		err := m.app.do(m.ctx, func(e *game.Engine) error {
			var err error
			notice, err = fn(e)
			return err
		})
		if err != nil {
			return noticeMsg(badStyle.Render(err.Error()))
		}
		return noticeMsg(notice)
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.prestige.Width = min(40, max(10, msg.Width-20))
		return m, nil
	case refreshMsg:
		return m, tea.Batch(m.fetch(), tick())
	case snapshotMsg:
		m.snap = snapshot(msg)
		return m, nil
	case eventMsg:
		if line := describeEvent(events.Event(msg)); line != "" {
			m.pushLog(line)
		}
		return m, m.waitEvent()
	case noticeMsg:
		if msg != "" {
			m.pushLog(string(msg))
		}
		return m, m.fetch()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *playModel) pushLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, keys.Click):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.Click()
			return "", err
		})
	case key.Matches(msg, keys.Upgrade):
		id := int(msg.String()[0] - '0')
		return m, m.act(func(e *game.Engine) (string, error) {
			return "", e.BuyUpgrade(id)
		})
	case key.Matches(msg, keys.Asset):
		return m, m.act(func(e *game.Engine) (string, error) {
			a, ok := nextAsset(e.State())
			if !ok {
				return "every asset is owned", nil
			}
			return "", e.BuyAsset(a.ID)
		})
	case key.Matches(msg, keys.Hire):
		return m, m.act(func(e *game.Engine) (string, error) {
			s, ok := nextStaff(e.State())
			if !ok {
				return "the whole team is hired", nil
			}
			return "", e.BuyStaff(s.ID)
		})
	case key.Matches(msg, keys.Golden):
		return m, func() tea.Msg {
			reward, err := m.app.loop.CollectBonus(m.ctx)
			if err != nil {
				return noticeMsg(dimStyle.Render("no golden brick right now"))
			}
			return noticeMsg(goldStyle.Render(fmt.Sprintf("golden brick! +%s", comma(reward))))
		}
	case key.Matches(msg, keys.Offline):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.CollectOffline()
			return "", err
		})
	case key.Matches(msg, keys.Daily):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.ClaimDaily(m.app.clock.Now())
			return "", err
		})
	case key.Matches(msg, keys.Claim):
		return m, m.act(func(e *game.Engine) (string, error) {
			if got := e.ClaimAllAchievements(); got == 0 {
				return "nothing to claim", nil
			}
			return "", nil
		})
	case key.Matches(msg, keys.Launch):
		return m, m.act(func(e *game.Engine) (string, error) {
			if e.Launch().Phase == game.LaunchResolved {
				if err := e.ResetLaunch(); err != nil {
					return "", err
				}
			}
			name, ticker := e.RandomCoinName()
			if err := e.StartLaunch(name, ticker); err != nil {
				return "", err
			}
			return fmt.Sprintf("launched %s %s", name, ticker), nil
		})
	case key.Matches(msg, keys.Sell):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.SellLaunch()
			return "", err
		})
	case key.Matches(msg, keys.Rug):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.RugLaunch()
			return "", err
		})
	case key.Matches(msg, keys.Prestige):
		return m, m.act(func(e *game.Engine) (string, error) {
			_, err := e.Prestige(m.ctx)
			return "", err
		})
	}
	return m, nil
}

// nextAsset is the first unowned asset; assets must be bought in order.
func nextAsset(st game.PlayerState) (game.Asset, bool) {
	for _, a := range game.Assets {
		if !st.OwnedAssets[a.ID] {
			return a, true
		}
	}
	return game.Asset{}, false
}

// nextStaff is the cheapest staff member not hired yet.
func nextStaff(st game.PlayerState) (game.Staff, bool) {
	var (
		best  game.Staff
		found bool
	)
	for _, s := range game.StaffRoster {
		if st.OwnedStaff[s.ID] {
			continue
		}
		if !found || s.Cost < best.Cost {
			best, found = s, true
		}
	}
	return best, found
}

func describeEvent(ev events.Event) string {
	switch ev.Type {
	case events.Purchased:
		return fmt.Sprintf("bought %s for %s", ev.Ref, comma(ev.Amount))
	case events.Prestiged:
		return goodStyle.Render(fmt.Sprintf("prestiged: +%d clout", ev.Amount))
	case events.BonusSpawned:
		return goldStyle.Render(fmt.Sprintf("a golden brick appeared (x%d), press g!", ev.Amount))
	case events.BonusExpired:
		return dimStyle.Render("the golden brick crumbled")
	case events.RewardGranted, events.AchievementClaimed, events.OfflineCollected:
		return goodStyle.Render(fmt.Sprintf("+%s bux (%s%s)", comma(ev.Amount), ev.Type, refSuffix(ev.Ref)))
	case events.LaunchResolved:
		return fmt.Sprintf("launch %s, dev bag %s", ev.Ref, comma(ev.Amount))
	case events.SaveFailed:
		return badStyle.Render(ev.Ref + " save failed")
	case events.LeaderboardRejected:
		return badStyle.Render("leaderboard submit failed")
	}
	return ""
}

func refSuffix(ref string) string {
	if ref == "" {
		return ""
	}
	return " " + ref
}

func (m playModel) View() string {
	s := m.snap
	var b strings.Builder

	name := s.state.Username
	if name == "" {
		name = badStyle.Render("set a name with `bricks name`")
	}
	b.WriteString(titleStyle.Render("🧱 BRICKS TYCOON") + "  " + name + "\n\n")

	econ := fmt.Sprintf("Bux       %s\nIncome    %s/s\nPer tap   %s\nFollowers %s\nClout     %d (x%.1f)",
		goodStyle.Render(comma(s.stats.Balance)),
		comma(s.stats.IncomePerSecond),
		comma(s.stats.ClickValue),
		comma(s.stats.Followers),
		s.stats.CloutLevel, game.CloutMultiplier(s.stats.CloutLevel),
	)
	pct := float64(s.stats.Balance) / float64(game.PrestigeThreshold)
	econ += "\nPrestige  " + m.prestige.ViewAs(min(1, pct))

	var shop strings.Builder
	for _, u := range game.Upgrades {
		lvl := s.state.UpgradeLevels[u.ID]
		cost := "max"
		if lvl < game.MaxUpgradeLevel {
			cost = comma(game.UpgradeCost(u.BaseCost, lvl))
		}
		fmt.Fprintf(&shop, "%d %-18s L%-2d %s\n", u.ID, truncate(u.Name, 18), lvl, cost)
	}
	if a, ok := nextAsset(s.state); ok {
		fmt.Fprintf(&shop, "b %-18s +%s/tap %s\n", truncate(a.Name, 18), comma(a.ClickBonus), comma(a.Cost))
	}
	if st, ok := nextStaff(s.state); ok {
		fmt.Fprintf(&shop, "h %-18s %s\n", truncate(st.Name, 18), comma(st.Cost))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(econ),
		boxStyle.Render(strings.TrimRight(shop.String(), "\n")),
		boxStyle.Render(m.launchView()),
	))
	b.WriteString("\n")

	var extras []string
	if s.bonus.Armed {
		extras = append(extras, goldStyle.Render(fmt.Sprintf("GOLDEN BRICK x%d (%ds)", s.bonus.Multiplier, s.bonus.Remaining)))
	}
	if s.pending > 0 {
		extras = append(extras, goodStyle.Render("offline earnings: "+comma(s.pending)))
	}
	if s.daily.CanClaim {
		extras = append(extras, goodStyle.Render(fmt.Sprintf("daily day %d ready", s.daily.NextDay)))
	}
	if len(extras) > 0 {
		b.WriteString(strings.Join(extras, "   ") + "\n")
	}

	for _, line := range m.log {
		b.WriteString(dimStyle.Render("› ") + line + "\n")
	}
	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func (m playModel) launchView() string {
	l := m.snap.launch
	switch l.Phase {
	case game.LaunchLive:
		return fmt.Sprintf("%s %s (tier %d)\nprice   %.0f\ndev bag %s\n%s",
			l.Name, l.Ticker, l.Tier, l.Price, comma(l.DevBag), sparkline(l.Chart))
	case game.LaunchResolved:
		style := goodStyle
		if l.Outcome == game.OutcomeRugged {
			style = badStyle
		}
		return fmt.Sprintf("%s %s\n%s\npayout %s\n[l] launch again", l.Name, l.Ticker, style.Render(string(l.Outcome)), comma(l.Payout))
	default:
		return fmt.Sprintf("Memecoin launch\ntier %d  luck %.2f\nentry %s\n[l] launch", l.Tier, l.Luck, comma(l.Cost))
	}
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func sparkline(points []float64) string {
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0], points[0]
	for _, p := range points {
		lo = min(lo, p)
		hi = max(hi, p)
	}
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
