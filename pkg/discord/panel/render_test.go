package panel

import (
	"encoding/json"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/intake"
)

func rowButton(t *testing.T, components []discordgo.MessageComponent) discordgo.Button {
	t.Helper()
	if len(components) != 1 {
		t.Fatalf("component count = %d, want 1 row", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component[0] is %T, want ActionsRow", components[0])
	}
	if len(row.Components) != 1 {
		t.Fatalf("row has %d components, want 1 button", len(row.Components))
	}
	button, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("row component is %T, want Button", row.Components[0])
	}
	return button
}

func TestButtonRowOpen(t *testing.T) {
	t.Parallel()

	button := rowButton(t, ButtonRow(intake.StatusOpen))
	if button.CustomID != StartApplicationID {
		t.Fatalf("custom id = %q, want %q", button.CustomID, StartApplicationID)
	}
	if button.Label != "Apply Now" {
		t.Fatalf("label = %q", button.Label)
	}
	if button.Style != discordgo.PrimaryButton {
		t.Fatalf("style = %v, want primary", button.Style)
	}
	if button.Disabled {
		t.Fatal("open panel button must be enabled")
	}
}

func TestButtonRowClosed(t *testing.T) {
	t.Parallel()

	button := rowButton(t, ButtonRow(intake.StatusClosed))
	if button.CustomID != StartApplicationID {
		t.Fatalf("custom id = %q, want %q", button.CustomID, StartApplicationID)
	}
	if button.Label != "Applications are closed" {
		t.Fatalf("label = %q", button.Label)
	}
	if button.Style != discordgo.DangerButton {
		t.Fatalf("style = %v, want danger", button.Style)
	}
	if !button.Disabled {
		t.Fatal("closed panel button must be disabled")
	}
}

func TestDecodeEmbed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantErr   bool
	}{
		{
			name:      "single object",
			raw:       `{"title":"Application Panel","description":"Click below."}`,
			wantTitle: "Application Panel",
		},
		{
			name:      "embeds wrapper",
			raw:       `{"embeds":[{"title":"Wrapped"},{"title":"Ignored"}]}`,
			wantTitle: "Wrapped",
		},
		{name: "empty", raw: ``, wantErr: true},
		{name: "not an object", raw: `[1,2]`, wantErr: true},
		{name: "malformed", raw: `{"title":`, wantErr: true},
		{name: "empty embeds array", raw: `{"embeds":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			embed, err := DecodeEmbed(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeEmbed error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && embed.Title != tt.wantTitle {
				t.Fatalf("title = %q, want %q", embed.Title, tt.wantTitle)
			}
		})
	}
}
