package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bricks/internal/config"
	"bricks/internal/game"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

func main() {
	_ = config.LoadDotEnv(".env")

	opts := &appOptions{}
	root := &cobra.Command{
		Use:          "bricks",
		Short:        "Bricks Tycoon, the terminal edition",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiBase, "api", "", "API base URL (default $BRICKS_API_BASE_URL)")
	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "never contact the API")

	root.AddCommand(
		newPlayCmd(opts),
		newStatusCmd(opts),
		newNameCmd(opts),
		newClickCmd(opts),
		newCollectCmd(opts),
		newShopCmd(opts),
		newBuyCmd(opts),
		newPrestigeCmd(opts),
		newDailyCmd(opts),
		newAchievementsCmd(opts),
		newLaunchCmd(opts),
		newWalletCmd(opts),
		newLeaderboardCmd(opts),
		newInviteCmd(opts),
		newSyncCmd(opts),
		newResetCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withApp opens the local player for one headless command and saves on exit.
func withApp(opts *appOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()
		a, err := openApp(cmd.Context(), *opts)
		if err != nil {
			return err
		}
		runErr := fn(ctx, a, args)
		closeErr := a.close(context.Background())
		return errors.Join(runErr, closeErr)
	}
}

func newStatusCmd(opts *appOptions) *cobra.Command {
	var lifetime bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show balance, income and what is ready to claim",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			var (
				stats   game.Stats
				pending int64
				daily   game.DailyView
				launch  game.LaunchView
				name    string
			)
			err := a.do(ctx, func(e *game.Engine) error {
				stats = e.Stats()
				pending = e.PendingOffline()
				daily = e.Daily(a.clock.Now())
				launch = e.Launch()
				name = e.State().Username
				return nil
			})
			if err != nil {
				return err
			}
			renderStatus(stats, pending, daily, launch, name)
			if lifetime {
				renderStats(stats)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&lifetime, "stats", false, "include lifetime stats")
	return cmd
}

func newNameCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "name [username]",
		Short: "Set your username (3-15 characters)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				var err error
				if name, err = promptRequired("Username"); err != nil {
					return err
				}
			}
			if err := a.do(ctx, func(e *game.Engine) error { return e.SetUsername(name) }); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Welcome, %s.", strings.TrimSpace(name)))
			return nil
		}),
	}
}

func newClickCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "click [times]",
		Short: "Tap the brick",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			times := 1
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 || n > 1000 {
					return fmt.Errorf("times must be between 1 and 1000")
				}
				times = n
			}
			var earned int64
			err := a.do(ctx, func(e *game.Engine) error {
				for range times {
					v, err := e.Click()
					if err != nil {
						return err
					}
					earned += v
				}
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("+%s bux from %d clicks.", comma(earned), times))
			return nil
		}),
	}
}

func newCollectCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect earnings made while you were away",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			var amount int64
			err := a.do(ctx, func(e *game.Engine) error {
				var err error
				amount, err = e.CollectOffline()
				return err
			})
			if errors.Is(err, game.ErrNothingToCollect) {
				printInfo("Nothing to collect.")
				return nil
			}
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Collected %s bux of offline earnings.", comma(amount)))
			return nil
		}),
	}
}

func newShopCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "List upgrades, assets and staff",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			st, err := a.state(ctx)
			if err != nil {
				return err
			}
			renderShop(st)
			return nil
		}),
	}
}

func newBuyCmd(opts *appOptions) *cobra.Command {
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy upgrades, assets and staff",
	}
	buy.AddCommand(&cobra.Command{
		Use:   "upgrade <id> [count]",
		Short: "Level up an income upgrade",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid upgrade id %q", args[0])
			}
			count := 1
			if len(args) > 1 {
				if count, err = strconv.Atoi(args[1]); err != nil || count < 1 {
					return fmt.Errorf("invalid count %q", args[1])
				}
			}
			bought := 0
			err = a.do(ctx, func(e *game.Engine) error {
				for range count {
					if err := e.BuyUpgrade(id); err != nil {
						return err
					}
					bought++
				}
				return nil
			})
			if bought > 0 {
				u, _ := game.UpgradeByID(id)
				printSuccess(fmt.Sprintf("Bought %d level(s) of %s.", bought, u.Name))
			}
			return err
		}),
	})
	buy.AddCommand(&cobra.Command{
		Use:   "asset <id>",
		Short: "Buy the next asset in the chain",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.do(ctx, func(e *game.Engine) error { return e.BuyAsset(args[0]) }); err != nil {
				return err
			}
			printSuccess("Asset acquired: " + args[0])
			return nil
		}),
	})
	buy.AddCommand(&cobra.Command{
		Use:   "staff <id>",
		Short: "Hire staff",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.do(ctx, func(e *game.Engine) error { return e.BuyStaff(args[0]) }); err != nil {
				return err
			}
			printSuccess("Hired: " + args[0])
			return nil
		}),
	})
	return buy
}

func newPrestigeCmd(opts *appOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "prestige",
		Short: "Trade your bux for clout and start over",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if !yes {
				ok, err := confirm("Prestige resets bux, followers, upgrades, assets and staff. Continue?")
				if err != nil || !ok {
					return err
				}
			}
			var earned int64
			err := a.do(ctx, func(e *game.Engine) error {
				var err error
				earned, err = e.Prestige(ctx)
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Prestiged! +%d clout.", earned))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newDailyCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Claim the daily reward",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			var (
				reward int64
				view   game.DailyView
			)
			err := a.do(ctx, func(e *game.Engine) error {
				var err error
				reward, err = e.ClaimDaily(a.clock.Now())
				view = e.Daily(a.clock.Now())
				return err
			})
			if errors.Is(err, game.ErrDailyCooldown) {
				printWarn(fmt.Sprintf("Already claimed. Next reward in %s.", view.ReadyIn.Round(time.Minute)))
				return nil
			}
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Day %d: +%s bux.", view.Streak, comma(reward)))
			return nil
		}),
	}
}

func newAchievementsCmd(opts *appOptions) *cobra.Command {
	ach := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			var views []game.AchievementView
			if err := a.do(ctx, func(e *game.Engine) error {
				views = e.Achievements()
				return nil
			}); err != nil {
				return err
			}
			renderAchievements(views)
			return nil
		}),
	}
	ach.AddCommand(&cobra.Command{
		Use:   "claim [id]",
		Short: "Claim one achievement, or every unlocked one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			var reward int64
			err := a.do(ctx, func(e *game.Engine) error {
				if len(args) == 0 {
					reward = e.ClaimAllAchievements()
					return nil
				}
				var err error
				reward, err = e.ClaimAchievement(args[0])
				return err
			})
			if err != nil {
				return err
			}
			if reward == 0 {
				printInfo("Nothing to claim.")
				return nil
			}
			printSuccess(fmt.Sprintf("+%s bux from achievements.", comma(reward)))
			return nil
		}),
	})
	return ach
}

func newLaunchCmd(opts *appOptions) *cobra.Command {
	var (
		name   string
		ticker string
		steps  int
		rug    bool
	)
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch a memecoin and cash out the dev bag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 || steps > 60 {
				return fmt.Errorf("--steps must be between 1 and 60")
			}
			a, err := openApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			runErr := runLaunch(cmd.Context(), a, name, ticker, steps, rug)
			return errors.Join(runErr, a.close(context.Background()))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "coin name (random when empty)")
	cmd.Flags().StringVar(&ticker, "ticker", "", "coin ticker")
	cmd.Flags().IntVar(&steps, "steps", 10, "price ticks to ride before cashing out")
	cmd.Flags().BoolVar(&rug, "rug", false, "rug pull instead of selling")
	return cmd
}

func runLaunch(ctx context.Context, a *app, name, ticker string, steps int, rug bool) error {
	var (
		view game.LaunchView
		cost int64
	)
	err := a.do(ctx, func(e *game.Engine) error {
		if e.Launch().Phase == game.LaunchResolved {
			if err := e.ResetLaunch(); err != nil {
				return err
			}
		}
		if name == "" {
			name, ticker = e.RandomCoinName()
		}
		cost = e.Launch().Cost
		if err := e.StartLaunch(name, ticker); err != nil {
			return err
		}
		view = e.Launch()
		return nil
	})
	if err != nil {
		return err
	}
	accent.Printf("Launched %s %s (tier %d, entry %s)\n", view.Name, view.Ticker, view.Tier, comma(cost))

	ticker800 := time.NewTicker(800 * time.Millisecond)
	defer ticker800.Stop()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker800.C:
		}
		if err := a.do(ctx, func(e *game.Engine) error {
			view = e.Launch()
			return nil
		}); err != nil {
			return err
		}
		fmt.Printf("  %-3d price %12.2f  dev bag %s\n", i+1, view.Price, comma(view.DevBag))
		if view.Phase == game.LaunchResolved {
			break
		}
	}

	if view.Phase != game.LaunchResolved {
		err = a.do(ctx, func(e *game.Engine) error {
			var err error
			if rug {
				_, err = e.RugLaunch()
			} else {
				_, err = e.SellLaunch()
			}
			view = e.Launch()
			return err
		})
		if err != nil {
			return err
		}
	}
	switch view.Outcome {
	case game.OutcomeRugged:
		printWarn(fmt.Sprintf("Rugged. Dev bag: %s bux. Followers are not amused.", comma(view.Payout)))
	case game.OutcomeBoundary:
		printInfo(fmt.Sprintf("The chart broke out of range. Dev bag: %s bux.", comma(view.Payout)))
	default:
		printSuccess(fmt.Sprintf("Sold. Dev bag: %s bux.", comma(view.Payout)))
	}
	return nil
}

func newWalletCmd(opts *appOptions) *cobra.Command {
	var claim bool
	w := &cobra.Command{
		Use:   "wallet <address>",
		Short: "Quote holder rewards for a Solana wallet",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if a.client == nil {
				return errOffline
			}
			quote, err := a.client.WalletAssets(ctx, args[0])
			if err != nil {
				return err
			}
			accent.Printf("\nWallet %s\n", quote.Wallet)
			fmt.Printf("NFTs %d, tokens %d\n", quote.NFTs, quote.Tokens)
			for _, n := range quote.NFTDetails {
				fmt.Printf("  %s  %s\n", truncate(n.Name, 30), n.Mint)
			}
			fmt.Printf("Reward: %s bux, %d clout (%s)\n", comma(quote.Rewards.Bux), quote.Rewards.Clout, quote.Rewards.Reason)
			if !claim {
				return nil
			}
			if err := a.do(ctx, func(e *game.Engine) error {
				e.ApplyWalletReward(quote.Rewards)
				return nil
			}); err != nil {
				return err
			}
			printSuccess("Reward applied.")
			return nil
		}),
	}
	w.Flags().BoolVar(&claim, "claim", false, "apply the quoted reward")
	w.AddCommand(&cobra.Command{
		Use:   "verify <address> <signature> <message>",
		Short: "Check a signed wallet ownership message",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if a.client == nil {
				return errOffline
			}
			out, err := a.client.WalletVerify(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if out.Verified {
				printSuccess(fmt.Sprintf("Wallet %s verified at %s.", out.Wallet, out.Timestamp.Local().Format(time.RFC1123)))
			} else {
				printWarn("Wallet not verified.")
			}
			return nil
		}),
	})
	return w
}

var errOffline = errors.New("this command needs the API (drop --offline or set BRICKS_API_BASE_URL)")

func newLeaderboardCmd(opts *appOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Top players by best balance",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if a.client == nil {
				return errOffline
			}
			rows, err := a.client.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderLeaderboard(rows)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show (max 100)")
	return cmd
}

func newInviteCmd(opts *appOptions) *cobra.Command {
	var noQR bool
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Show your referral link",
		RunE: withApp(opts, func(_ context.Context, a *app, _ []string) error {
			link := game.ReferralLink(a.cfg.BotName, a.playerID)
			accent.Println("\nInvite friends: they get a head start of " + comma(game.ReferralBonusBux) + " bux.")
			fmt.Println(link)
			if !noQR {
				qrterminal.GenerateHalfBlock(link, qrterminal.L, os.Stdout)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "print the link only")
	return cmd
}

func newSyncCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload your save and replay pending leaderboard scores",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if a.client == nil {
				return errOffline
			}
			sent, err := a.outbox.Flush(ctx, a.client)
			if err != nil {
				printError(fmt.Sprintf("Some scores are still pending: %v", err))
			}
			if sent > 0 {
				printSuccess(fmt.Sprintf("Submitted %d pending score(s).", sent))
			}
			printInfo("Save will be uploaded on exit.")
			return nil
		}),
	}
}

func newResetCmd(opts *appOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete your save and start over",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if !yes {
				ok, err := confirm("This deletes all progress on this device. Continue?")
				if err != nil || !ok {
					return err
				}
			}
			if _, err := a.bridge.DeleteSave(a.clock.Now()); err != nil {
				return err
			}
			if err := a.do(ctx, func(e *game.Engine) error {
				e.Reset()
				return nil
			}); err != nil {
				return err
			}
			printSuccess("Save deleted. Fresh start.")
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
