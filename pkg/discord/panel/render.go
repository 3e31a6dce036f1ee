package panel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/intake"
)

// StartApplicationID is the component custom id of the panel button.
const StartApplicationID = "start_application"

// Button labels for the two panel states.
const (
	labelOpen   = "Apply Now"
	labelClosed = "Applications are closed"
)

// ButtonRow renders the panel button for the given gate status. Open guilds
// get an enabled primary button; closed guilds a disabled danger button.
func ButtonRow(status intake.Status) []discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: StartApplicationID,
		Label:    labelOpen,
		Style:    discordgo.PrimaryButton,
	}
	if status == intake.StatusClosed {
		button.Label = labelClosed
		button.Style = discordgo.DangerButton
		button.Disabled = true
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{button},
		},
	}
}

// DecodeEmbed parses a persisted embed snapshot. It accepts a single embed
// object or an object wrapping an "embeds" array (first entry wins), so
// snapshots written by older versions keep loading.
func DecodeEmbed(raw json.RawMessage) (*discordgo.MessageEmbed, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("missing embed snapshot")
	}
	if trimmed[0] != '{' {
		return nil, errors.New("embed snapshot must be a JSON object")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("invalid embed snapshot: %w", err)
	}

	if wrapped, ok := obj["embeds"]; ok {
		var embeds []*discordgo.MessageEmbed
		if err := json.Unmarshal(wrapped, &embeds); err != nil {
			return nil, fmt.Errorf("invalid embeds field: %w", err)
		}
		if len(embeds) == 0 || embeds[0] == nil {
			return nil, errors.New("embeds field is empty")
		}
		return embeds[0], nil
	}

	var embed discordgo.MessageEmbed
	if err := json.Unmarshal(trimmed, &embed); err != nil {
		return nil, fmt.Errorf("invalid embed snapshot: %w", err)
	}
	return &embed, nil
}
