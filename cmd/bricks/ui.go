package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bricks/internal/game"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func confirm(label string) (bool, error) {
	fmt.Printf("%s [y/N]: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "y" || text == "yes", nil
}

func renderStatus(st game.Stats, pending int64, daily game.DailyView, launch game.LaunchView, username string) {
	accent.Println("\n== BRICKS TYCOON ==")
	name := username
	if name == "" {
		name = warn.Sprint("(no username, run `bricks name <name>`)")
	}
	fmt.Printf("%-16s %s\n", "Player", name)
	fmt.Printf("%-16s %s\n", "Bux", success.Sprint(comma(st.Balance)))
	fmt.Printf("%-16s %s/s\n", "Income", comma(st.IncomePerSecond))
	fmt.Printf("%-16s %s\n", "Per click", comma(st.ClickValue))
	fmt.Printf("%-16s %s\n", "Followers", comma(st.Followers))
	fmt.Printf("%-16s %d (x%.1f)\n", "Clout", st.CloutLevel, game.CloutMultiplier(st.CloutLevel))
	if pending > 0 {
		fmt.Printf("%-16s %s (run `bricks collect`)\n", "Offline", success.Sprint(comma(pending)))
	}
	if daily.CanClaim {
		fmt.Printf("%-16s day %d ready: %s bux\n", "Daily", daily.NextDay, comma(daily.Reward))
	} else {
		fmt.Printf("%-16s streak %d, next in %s\n", "Daily", daily.Streak, daily.ReadyIn.Round(time.Minute))
	}
	if st.Balance >= game.PrestigeThreshold {
		fmt.Printf("%-16s %s\n", "Prestige", success.Sprint("available"))
	} else {
		fmt.Printf("%-16s %s / %s\n", "Prestige", game.FormatBux(st.Balance), game.FormatBux(game.PrestigeThreshold))
	}
	fmt.Printf("%-16s %s (cost %s)\n", "Launch", launch.Phase, comma(launch.Cost))
	fmt.Println()
}

func renderStats(st game.Stats) {
	accent.Println("\n== LIFETIME ==")
	fmt.Printf("%-18s %s\n", "Total clicks", comma(st.TotalClicks))
	fmt.Printf("%-18s %s\n", "Earned by clicks", comma(st.TotalEarned))
	fmt.Printf("%-18s %s\n", "Highest balance", comma(st.HighestBalance))
	fmt.Printf("%-18s %s\n", "Total spent", comma(st.TotalSpent))
	fmt.Printf("%-18s %d\n", "Prestiges", st.TotalPrestiges)
	fmt.Printf("%-18s %s\n", "Played", (time.Duration(st.TotalSecondsPlayed) * time.Second).String())
	fmt.Printf("%-18s %s\n", "Started", st.StartedAt.Local().Format("2006-01-02"))
	fmt.Println()
}

func renderShop(st game.PlayerState) {
	accent.Println("\n== UPGRADES ==")
	fmt.Printf("%-4s %-20s %6s %14s %12s\n", "ID", "NAME", "LEVEL", "NEXT COST", "INCOME")
	for _, u := range game.Upgrades {
		lvl := st.UpgradeLevels[u.ID]
		cost := "MAX"
		if lvl < game.MaxUpgradeLevel {
			cost = comma(game.UpgradeCost(u.BaseCost, lvl))
		}
		fmt.Printf("%-4d %-20s %6d %14s %12s\n", u.ID, truncate(u.Name, 20), lvl, cost, comma(game.UpgradeIncome(u.BaseIncome, max(lvl, 1))))
	}

	accent.Println("\n== ASSETS ==")
	for _, a := range game.Assets {
		fmt.Printf("%-12s %-20s %14s  +%s/click  %s\n", a.ID, truncate(a.Name, 20), comma(a.Cost), comma(a.ClickBonus), owned(st.OwnedAssets[a.ID]))
	}

	accent.Println("\n== STAFF ==")
	for _, s := range game.StaffRoster {
		perk := fmt.Sprintf("%d clicks/s", s.Clicks)
		if s.Kind == game.StaffLuck {
			perk = fmt.Sprintf("+%.0f%% launch luck", s.Luck*100)
		}
		fmt.Printf("%-12s %-20s %14s  %-18s %s\n", s.ID, truncate(s.Name, 20), comma(s.Cost), perk, owned(st.OwnedStaff[s.ID]))
	}
	fmt.Println()
}

func owned(v bool) string {
	if v {
		return success.Sprint("owned")
	}
	return ""
}

func renderAchievements(views []game.AchievementView) {
	accent.Println("\n== ACHIEVEMENTS ==")
	for _, a := range views {
		state := neutral.Sprintf("%d/%d", a.Progress, a.Target)
		switch {
		case a.Claimed:
			state = success.Sprint("claimed")
		case a.Unlocked:
			state = warn.Sprint("ready to claim")
		}
		fmt.Printf("%-20s %-22s %10s  %s\n", a.ID, truncate(a.Name, 22), comma(a.Reward), state)
	}
	fmt.Println()
}

func renderLeaderboard(rows []game.LeaderboardRow) {
	accent.Println("\n== LEADERBOARD ==")
	if len(rows) == 0 {
		printInfo("No leaderboard rows yet.")
		return
	}
	fmt.Printf("%-6s %-18s %16s %6s\n", "RANK", "PLAYER", "BUX", "CLOUT")
	for _, row := range rows {
		fmt.Printf("%-6d %-18s %16s %6d\n", row.Rank, truncate(row.Username, 18), comma(row.Balance), row.CloutLevel)
	}
	fmt.Println()
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
