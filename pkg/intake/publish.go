package intake

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/errutil"
)

// embedSender is the subset of discordgo.Session used to publish log records.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// roleAdder is the subset of discordgo.Session used to grant roles.
type roleAdder interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// DiscordLogPublisher publishes completed applications as embeds in the
// guild's configured log channel.
type DiscordLogPublisher struct {
	sender embedSender
}

// NewDiscordLogPublisher creates a publisher sending through sender.
func NewDiscordLogPublisher(sender embedSender) *DiscordLogPublisher {
	return &DiscordLogPublisher{sender: sender}
}

// Publish sends one embed per record, question/answer pairs as fields in ask
// order.
func (p *DiscordLogPublisher) Publish(logChannelID string, rec Record) error {
	if logChannelID == "" {
		return fmt.Errorf("log channel id is empty")
	}

	return errutil.HandleDiscordError("publish_application_log", func() error {
		_, err := p.sender.ChannelMessageSendEmbed(logChannelID, BuildLogEmbed(rec))
		return err
	})
}

// BuildLogEmbed renders a completed application as a log embed.
func BuildLogEmbed(rec Record) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(rec.Answers))
	for _, pair := range rec.Answers {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  pair.Question,
			Value: pair.Answer,
		})
	}

	submittedAt := rec.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	return &discordgo.MessageEmbed{
		Title:       "New Application",
		Description: fmt.Sprintf("Applicant: <@%s>", rec.UserID),
		Fields:      fields,
		Timestamp:   submittedAt.Format(time.RFC3339),
	}
}

// DiscordRoleGrantor grants the configured role through the Discord API.
type DiscordRoleGrantor struct {
	adder roleAdder
}

// NewDiscordRoleGrantor creates a grantor acting through adder.
func NewDiscordRoleGrantor(adder roleAdder) *DiscordRoleGrantor {
	return &DiscordRoleGrantor{adder: adder}
}

// Grant assigns roleID to userID in guildID. Failure is non-fatal to the
// session; callers report it and move on.
func (g *DiscordRoleGrantor) Grant(guildID, userID, roleID string) error {
	if roleID == "" {
		return fmt.Errorf("role id is empty")
	}

	return errutil.HandleDiscordError("grant_application_role", func() error {
		return g.adder.GuildMemberRoleAdd(guildID, userID, roleID)
	})
}
