package commands

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/discord/panel"
	"github.com/small-frappuccino/applygate/pkg/files"
	"github.com/small-frappuccino/applygate/pkg/intake"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// SetupCommand configures the application system for a guild: it stores the
// log channel and role, builds the panel embed, posts the panel message with
// its button, and persists the panel record for the resync loop.
type SetupCommand struct {
	configs *files.GuildConfigStore
	records *files.PanelRecordStore
	gate    *intake.Gate
}

// NewSetupCommand wires the setup command.
func NewSetupCommand(configs *files.GuildConfigStore, records *files.PanelRecordStore, gate *intake.Gate) *SetupCommand {
	return &SetupCommand{configs: configs, records: records, gate: gate}
}

func (c *SetupCommand) Name() string        { return "setup" }
func (c *SetupCommand) Description() string { return "Setup the application system" }

func (c *SetupCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "log_channel",
			Description: "The channel where application logs will be sent",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "embed_channel",
			Description: "The channel where the application panel will be sent",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "The role to assign on successful application",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "embed_color",
			Description: "The color of the panel embed (in hex)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "footer_text",
			Description: "The footer text for the embed",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "footer_icon",
			Description: "The URL for the footer icon image",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "thumbnail_image",
			Description: "The URL for the thumbnail image",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "lower_image",
			Description: "The URL for the lower image",
		},
	}
}

func (c *SetupCommand) RequiresGuild() bool       { return true }
func (c *SetupCommand) RequiresManageGuild() bool { return true }

func (c *SetupCommand) Handle(ctx *Context) error {
	opts := optionMap(ctx.Interaction)

	logChannelID := channelOptionID(opts, "log_channel")
	embedChannelID := channelOptionID(opts, "embed_channel")
	roleID := roleOptionID(opts, "role")
	embedColor := stringOption(opts, "embed_color")
	footerText := stringOption(opts, "footer_text")

	if logChannelID == "" || embedChannelID == "" || roleID == "" || embedColor == "" || footerText == "" {
		return NewCommandError("Invalid input, please provide all required options.", true)
	}

	color, err := parseHexColor(embedColor)
	if err != nil {
		return NewCommandError(fmt.Sprintf("Invalid embed color: %v.", err), true)
	}

	if err := c.configs.Set(ctx.GuildID, files.GuildConfig{
		LogChannelID: logChannelID,
		RoleID:       roleID,
	}); err != nil {
		return fmt.Errorf("save guild config: %w", err)
	}

	embed := c.buildPanelEmbed(ctx, color, footerText, opts)

	message, err := ctx.Session.ChannelMessageSendComplex(embedChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: panel.ButtonRow(c.gate.Status(ctx.GuildID)),
	})
	if err != nil {
		return NewCommandError("Failed to send the panel message. Please check my permissions in that channel.", true)
	}

	snapshot, err := json.Marshal(embed)
	if err != nil {
		return fmt.Errorf("snapshot panel embed: %w", err)
	}
	if err := c.records.Set(ctx.GuildID, files.PanelRecord{
		ChannelID: embedChannelID,
		Embed:     snapshot,
		MessageID: message.ID,
	}); err != nil {
		return fmt.Errorf("save panel record: %w", err)
	}

	log.ApplicationLogger().Info("Application system configured",
		"guildID", ctx.GuildID, "logChannelID", logChannelID, "embedChannelID", embedChannelID, "roleID", roleID)

	return NewResponder(ctx.Session).Reply(ctx.Interaction, "Application system set up successfully!")
}

func (c *SetupCommand) buildPanelEmbed(ctx *Context, color int, footerText string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) *discordgo.MessageEmbed {
	botAvatar := ""
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		botAvatar = ctx.Session.State.User.AvatarURL("")
	}

	footerIcon := stringOption(opts, "footer_icon")
	if footerIcon == "" {
		footerIcon = botAvatar
	}
	thumbnail := stringOption(opts, "thumbnail_image")
	if thumbnail == "" {
		thumbnail = botAvatar
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Application Panel",
		Description: "Click the button below to start your application.",
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text:    footerText,
			IconURL: footerIcon,
		},
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	if lower := stringOption(opts, "lower_image"); lower != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: lower}
	}
	return embed
}
