package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// messageSender is the part of *discordgo.Session the channel uses.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Compile-time interface check.
var _ Channel = (*DiscordChannel)(nil)

// DiscordChannel posts messages to a Discord text channel as a bot.
type DiscordChannel struct {
	session   messageSender
	channelID string
}

// NewDiscordChannel creates a REST-only bot session; no gateway connection
// is opened.
func NewDiscordChannel(botToken, channelID string) (*DiscordChannel, error) {
	if botToken == "" {
		return nil, errors.New("discord channel: empty bot token")
	}
	if channelID == "" {
		return nil, errors.New("discord channel: empty channel id")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord channel: %w", err)
	}
	return &DiscordChannel{session: session, channelID: channelID}, nil
}

// Name implements Channel.
func (d *DiscordChannel) Name() string { return "discord" }

// Send posts text to the configured channel.
func (d *DiscordChannel) Send(ctx context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord channel: %w", err)
	}
	return nil
}
