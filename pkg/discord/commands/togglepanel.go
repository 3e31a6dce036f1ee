package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/intake"
)

// TogglePanelCommand opens or closes a guild's application panel. The status
// change itself always succeeds; the panel re-render it triggers (through the
// gate's notify hook) succeeds or fails independently.
type TogglePanelCommand struct {
	gate *intake.Gate
}

// NewTogglePanelCommand wires the togglepanel command.
func NewTogglePanelCommand(gate *intake.Gate) *TogglePanelCommand {
	return &TogglePanelCommand{gate: gate}
}

func (c *TogglePanelCommand) Name() string { return "togglepanel" }
func (c *TogglePanelCommand) Description() string {
	return "Open or close the application panel for submissions"
}

func (c *TogglePanelCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "status",
			Description: "Set the panel status (open/close)",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Open", Value: "open"},
				{Name: "Close", Value: "close"},
			},
		},
	}
}

func (c *TogglePanelCommand) RequiresGuild() bool       { return true }
func (c *TogglePanelCommand) RequiresManageGuild() bool { return true }

func (c *TogglePanelCommand) Handle(ctx *Context) error {
	opts := optionMap(ctx.Interaction)

	status, err := intake.ParseStatus(stringOption(opts, "status"))
	if err != nil {
		return NewCommandError(`Invalid status. Please choose "open" or "close".`, true)
	}

	if err := c.gate.SetStatus(ctx.GuildID, status); err != nil {
		return fmt.Errorf("set panel status: %w", err)
	}

	verb := "opened"
	if status == intake.StatusClosed {
		verb = "closed"
	}
	return NewResponder(ctx.Session).Reply(ctx.Interaction, fmt.Sprintf("The application panel has been %s.", verb))
}
