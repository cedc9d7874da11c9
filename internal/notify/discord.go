package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"bricks/internal/game"
)

// Announcer posts leaderboard news somewhere people read it.
type Announcer interface {
	AnnounceBest(ctx context.Context, rec game.ScoreRecord) error
}

type Nop struct{}

func (Nop) AnnounceBest(context.Context, game.ScoreRecord) error { return nil }

type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	sender    messageSender
	channelID string
	log       *slog.Logger
}

// NewDiscord returns Nop when the token or channel is missing.
func NewDiscord(botToken, channelID string, logger *slog.Logger) (Announcer, error) {
	botToken = strings.TrimSpace(botToken)
	channelID = strings.TrimSpace(channelID)
	if botToken == "" || channelID == "" {
		return Nop{}, nil
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return newDiscord(session, channelID, logger), nil
}

func newDiscord(sender messageSender, channelID string, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{sender: sender, channelID: channelID, log: logger}
}

func (d *Discord) AnnounceBest(ctx context.Context, rec game.ScoreRecord) error {
	msg := FormatBest(rec)
	if _, err := d.sender.ChannelMessageSend(d.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	d.log.Info("announced leaderboard best", "username", rec.Username, "balance", rec.Balance)
	return nil
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "~", "\\~")

func FormatBest(rec game.ScoreRecord) string {
	return fmt.Sprintf("🧱 **%s** hit a new best: %s bux (clout %d)",
		markdownEscaper.Replace(rec.Username), game.FormatBux(rec.Balance), rec.CloutLevel)
}
