package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func interactionWithOptions(opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    "setup",
			Options: opts,
		},
	}}
}

func TestOptionHelpers(t *testing.T) {
	t.Parallel()

	i := interactionWithOptions(
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "footer_text", Type: discordgo.ApplicationCommandOptionString, Value: "Good luck!",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "log_channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "123",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "role", Type: discordgo.ApplicationCommandOptionRole, Value: "456",
		},
	)

	m := optionMap(i)
	if got := stringOption(m, "footer_text"); got != "Good luck!" {
		t.Fatalf("stringOption = %q", got)
	}
	if got := channelOptionID(m, "log_channel"); got != "123" {
		t.Fatalf("channelOptionID = %q", got)
	}
	if got := roleOptionID(m, "role"); got != "456" {
		t.Fatalf("roleOptionID = %q", got)
	}
	if got := stringOption(m, "missing"); got != "" {
		t.Fatalf("stringOption for absent option = %q, want empty", got)
	}
	if got := channelOptionID(m, "missing"); got != "" {
		t.Fatalf("channelOptionID for absent option = %q, want empty", got)
	}
}

func TestParseHexColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "#FFFFFF", want: 0xFFFFFF},
		{in: "#000000", want: 0},
		{in: "ff8800", want: 0xFF8800},
		{in: "  #1A2B3C  ", want: 0x1A2B3C},
		{in: "#FFF", wantErr: true},
		{in: "#GGGGGG", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
