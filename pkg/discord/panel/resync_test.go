package panel

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/files"
	"github.com/small-frappuccino/applygate/pkg/intake"
)

// fakeMessageEditor records edits and serves per-channel fetch errors.
type fakeMessageEditor struct {
	fetchErr map[string]error // keyed by channel id
	edits    []*discordgo.MessageEdit
}

func (f *fakeMessageEditor) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err, ok := f.fetchErr[channelID]; ok {
		return nil, err
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeMessageEditor) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func seededRecords(t *testing.T, guilds map[string]files.PanelRecord) *files.PanelRecordStore {
	t.Helper()
	store := files.NewPanelRecordStoreWithPath(filepath.Join(t.TempDir(), "embed.json"))
	for guildID, rec := range guilds {
		if err := store.Set(guildID, rec); err != nil {
			t.Fatalf("seeding record for %s: %v", guildID, err)
		}
	}
	return store
}

func panelRecord(channelID, messageID string) files.PanelRecord {
	return files.PanelRecord{
		ChannelID: channelID,
		MessageID: messageID,
		Embed:     json.RawMessage(`{"title":"Application Panel"}`),
	}
}

func unknownMessageErr() error {
	return &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}}
}

func TestResyncGuildEditsPanel(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{}
	records := seededRecords(t, map[string]files.PanelRecord{"G": panelRecord("C", "M")})
	r := NewResyncer(editor, records, intake.NewGate())

	if err := r.ResyncGuild("G"); err != nil {
		t.Fatalf("ResyncGuild returned error: %v", err)
	}
	if len(editor.edits) != 1 {
		t.Fatalf("edit count = %d, want 1", len(editor.edits))
	}

	edit := editor.edits[0]
	if edit.Channel != "C" || edit.ID != "M" {
		t.Fatalf("edit targeted (%q, %q), want (C, M)", edit.Channel, edit.ID)
	}
	if edit.Embeds == nil || len(*edit.Embeds) != 1 || (*edit.Embeds)[0].Title != "Application Panel" {
		t.Fatalf("edit embeds = %+v, want the persisted snapshot", edit.Embeds)
	}
	if edit.Components == nil {
		t.Fatal("edit carries no components")
	}
	button := rowButton(t, *edit.Components)
	if button.Disabled || button.Label != "Apply Now" {
		t.Fatalf("button = %+v, want the enabled open-state button", button)
	}
}

func TestResyncGuildReflectsClosedGate(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{}
	records := seededRecords(t, map[string]files.PanelRecord{"G": panelRecord("C", "M")})
	gate := intake.NewGate()
	if err := gate.SetStatus("G", intake.StatusClosed); err != nil {
		t.Fatalf("closing gate: %v", err)
	}
	r := NewResyncer(editor, records, gate)

	if err := r.ResyncGuild("G"); err != nil {
		t.Fatalf("ResyncGuild returned error: %v", err)
	}
	button := rowButton(t, *editor.edits[0].Components)
	if !button.Disabled || button.Label != "Applications are closed" {
		t.Fatalf("button = %+v, want the disabled closed-state button", button)
	}
}

// Two consecutive runs with no state change must produce identical edits; the
// resync loop converges instead of drifting.
func TestResyncAllIsIdempotent(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{}
	records := seededRecords(t, map[string]files.PanelRecord{
		"G1": panelRecord("C1", "M1"),
		"G2": panelRecord("C2", "M2"),
	})
	r := NewResyncer(editor, records, intake.NewGate())

	r.ResyncAll()
	first := editor.edits
	editor.edits = nil
	r.ResyncAll()
	second := editor.edits

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("edit counts = %d then %d, want 2 each", len(first), len(second))
	}

	byChannel := func(edits []*discordgo.MessageEdit) map[string][]byte {
		out := make(map[string][]byte, len(edits))
		for _, e := range edits {
			payload, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("marshal edit: %v", err)
			}
			out[e.Channel] = payload
		}
		return out
	}
	if !reflect.DeepEqual(byChannel(first), byChannel(second)) {
		t.Fatal("consecutive resync runs produced different edit payloads")
	}
}

func TestResyncGuildSkipsDeletedMessage(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{fetchErr: map[string]error{"C": unknownMessageErr()}}
	records := seededRecords(t, map[string]files.PanelRecord{"G": panelRecord("C", "M")})
	r := NewResyncer(editor, records, intake.NewGate())

	if err := r.ResyncGuild("G"); err != nil {
		t.Fatalf("ResyncGuild returned error for deleted message: %v", err)
	}
	if len(editor.edits) != 0 {
		t.Fatalf("edit count = %d, want 0; deleted panels must not be recreated", len(editor.edits))
	}

	// The record survives untouched for operators to inspect.
	rec, ok := records.Record("G")
	if !ok || rec.MessageID != "M" {
		t.Fatalf("record after skip = (%+v, %v), want original record retained", rec, ok)
	}
}

func TestResyncGuildSkipsIncompleteRecord(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{}
	records := seededRecords(t, map[string]files.PanelRecord{
		"no-message": {ChannelID: "C", Embed: json.RawMessage(`{"title":"x"}`)},
		"no-channel": {MessageID: "M", Embed: json.RawMessage(`{"title":"x"}`)},
	})
	r := NewResyncer(editor, records, intake.NewGate())

	r.ResyncAll()
	if len(editor.edits) != 0 {
		t.Fatalf("edit count = %d, want 0 for incomplete records", len(editor.edits))
	}
	if err := r.ResyncGuild("never-configured"); err != nil {
		t.Fatalf("ResyncGuild for unknown guild returned error: %v", err)
	}
}

func TestResyncAllIsolatesGuildFailures(t *testing.T) {
	t.Parallel()

	editor := &fakeMessageEditor{fetchErr: map[string]error{"C-bad": errors.New("api unavailable")}}
	records := seededRecords(t, map[string]files.PanelRecord{
		"G-bad":  panelRecord("C-bad", "M1"),
		"G-good": panelRecord("C-good", "M2"),
	})
	r := NewResyncer(editor, records, intake.NewGate())

	r.ResyncAll()

	if len(editor.edits) != 1 || editor.edits[0].Channel != "C-good" {
		t.Fatalf("edits = %+v, want exactly the healthy guild's edit", editor.edits)
	}
}

func TestResyncGuildPropagatesFetchError(t *testing.T) {
	t.Parallel()

	apiErr := errors.New("rate limited")
	editor := &fakeMessageEditor{fetchErr: map[string]error{"C": apiErr}}
	records := seededRecords(t, map[string]files.PanelRecord{"G": panelRecord("C", "M")})
	r := NewResyncer(editor, records, intake.NewGate())

	if err := r.ResyncGuild("G"); !errors.Is(err, apiErr) {
		t.Fatalf("ResyncGuild error = %v, want the fetch error", err)
	}
}
