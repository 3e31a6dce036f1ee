package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// optionMap indexes an interaction's options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func channelOptionID(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return ""
}

func roleOptionID(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return ""
}

// parseHexColor converts a "#RRGGBB" (or "RRGGBB") string into the integer
// form Discord embeds use.
func parseHexColor(v string) (int, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(v), "#")
	if len(cleaned) != 6 {
		return 0, fmt.Errorf("color %q must be a 6-digit hex value", v)
	}
	n, err := strconv.ParseInt(cleaned, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q is not valid hex: %w", v, err)
	}
	return int(n), nil
}
