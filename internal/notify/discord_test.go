package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"bricks/internal/game"
)

type fakeSender struct {
	channel string
	content string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestNewDiscordWithoutTokenIsNop(t *testing.T) {
	a, err := NewDiscord("", "123", nil)
	require.NoError(t, err)
	require.IsType(t, Nop{}, a)
	require.NoError(t, a.AnnounceBest(context.Background(), game.ScoreRecord{}))
}

func TestAnnounceBest(t *testing.T) {
	sender := &fakeSender{}
	d := newDiscord(sender, "chan-1", nil)

	err := d.AnnounceBest(context.Background(), game.ScoreRecord{Username: "brick_boss", Balance: 2_500_000, CloutLevel: 3})
	require.NoError(t, err)
	require.Equal(t, "chan-1", sender.channel)
	require.Contains(t, sender.content, `brick\_boss`)
	require.Contains(t, sender.content, "2.50M")
	require.Contains(t, sender.content, "clout 3")

	sender.err = errors.New("boom")
	require.Error(t, d.AnnounceBest(context.Background(), game.ScoreRecord{Username: "x"}))
}
