package infrastructure

import (
	"context"
	"fmt"

	"betpool/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const colorRejected = 0xE74C3C

// embedSender is the part of *discordgo.Session the notifier needs
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts rejection notices to a moderation channel
type DiscordNotifier struct {
	session   embedSender
	channelID string
}

// NewDiscordNotifier creates a REST-only Discord session for the bot token
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return newDiscordNotifier(session, channelID), nil
}

func newDiscordNotifier(session embedSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

// NotifyRejection posts the rejection reason addressed to the event owner
func (n *DiscordNotifier) NotifyRejection(ctx context.Context, notice events.EventRejectedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Event #%d rejected", notice.EventID),
		Description: notice.Title,
		Color:       colorRejected,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Owner", Value: fmt.Sprintf("%s <%s>", notice.OwnerName, notice.OwnerEmail), Inline: true},
			{Name: "Reason", Value: notice.RejectionMessage, Inline: false},
		},
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send rejection notice for event %d: %w", notice.EventID, err)
	}

	log.WithFields(log.Fields{
		"eventID":   notice.EventID,
		"channelID": n.channelID,
	}).Info("Rejection notice posted to Discord")
	return nil
}
