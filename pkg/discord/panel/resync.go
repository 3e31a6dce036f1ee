package panel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/files"
	"github.com/small-frappuccino/applygate/pkg/intake"
	"github.com/small-frappuccino/applygate/pkg/log"
	"github.com/small-frappuccino/applygate/pkg/task"
)

// Task types hosted on the task router.
const (
	TaskTypeResyncAll   = "panel.resync_all"
	TaskTypeRenderGuild = "panel.render_guild"
)

// DefaultResyncInterval is how often every persisted panel is re-applied.
const DefaultResyncInterval = 30 * time.Second

// messageEditor is the subset of discordgo.Session used to resync panels.
type messageEditor interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Resyncer re-applies the persisted embed snapshot and the current button
// state to every guild's live panel message. Each run is independent and
// idempotent; re-running with no changes produces no observable effect.
type Resyncer struct {
	editor  messageEditor
	records *files.PanelRecordStore
	gate    *intake.Gate
}

// NewResyncer wires a resyncer over the record store and gate.
func NewResyncer(editor messageEditor, records *files.PanelRecordStore, gate *intake.Gate) *Resyncer {
	return &Resyncer{editor: editor, records: records, gate: gate}
}

// ResyncAll re-renders every guild with a live persisted message. Per-guild
// failures are isolated: one guild's failure never aborts the rest.
func (r *Resyncer) ResyncAll() {
	for guildID := range r.records.Snapshot() {
		if err := r.ResyncGuild(guildID); err != nil {
			log.ErrorLoggerRaw().Error("Panel resync failed", "guildID", guildID, "error", err)
		}
	}
}

// ResyncGuild re-applies one guild's panel. A record without both a channel
// and a message id is skipped, as is a message deleted out-of-band; in both
// cases the record is left as-is and no message is recreated.
func (r *Resyncer) ResyncGuild(guildID string) error {
	rec, ok := r.records.Record(guildID)
	if !ok || rec.ChannelID == "" || rec.MessageID == "" {
		return nil
	}

	if _, err := r.editor.ChannelMessage(rec.ChannelID, rec.MessageID); err != nil {
		if isUnknownMessage(err) {
			log.DiscordLogger().Debug("Panel message gone; leaving record untouched",
				"guildID", guildID, "messageID", rec.MessageID)
			return nil
		}
		return fmt.Errorf("fetch panel message: %w", err)
	}

	embed, err := DecodeEmbed(rec.Embed)
	if err != nil {
		return fmt.Errorf("decode panel snapshot: %w", err)
	}

	edit := &discordgo.MessageEdit{
		Channel: rec.ChannelID,
		ID:      rec.MessageID,
	}
	edit.SetEmbed(embed)
	components := ButtonRow(r.gate.Status(guildID))
	edit.Components = &components

	if _, err := r.editor.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("edit panel message: %w", err)
	}
	return nil
}

// isUnknownMessage reports whether err is Discord's "unknown message" (the
// persisted message was deleted externally) or "unknown channel".
func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return false
}

// RegisterTasks installs the resync handlers on the router. TaskTypeResyncAll
// takes no payload; TaskTypeRenderGuild takes a guild id string.
func (r *Resyncer) RegisterTasks(router *task.Router) {
	router.RegisterHandler(TaskTypeResyncAll, func(ctx context.Context, payload any) error {
		r.ResyncAll()
		return nil
	})
	router.RegisterHandler(TaskTypeRenderGuild, func(ctx context.Context, payload any) error {
		guildID, ok := payload.(string)
		if !ok || guildID == "" {
			return fmt.Errorf("render task payload must be a guild id")
		}
		return r.ResyncGuild(guildID)
	})
}

// Schedule runs a resync immediately and then on the given interval. The
// returned cancel stops the periodic job.
func (r *Resyncer) Schedule(router *task.Router, interval time.Duration) func() {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}

	// Startup pass runs inline; the panel must be correct before the first
	// tick, and the router's cron only fires on its next cleanup cycle.
	r.ResyncAll()

	return router.ScheduleEvery(interval, task.Task{
		Type: TaskTypeResyncAll,
		Options: task.Options{
			GroupKey:       "panel",
			IdempotencyKey: TaskTypeResyncAll,
			IdempotencyTTL: interval / 2,
			MaxAttempts:    1,
		},
	})
}

// DispatchRender enqueues a single-shot render for one guild, serialized with
// the periodic resync so the two never interleave edits.
func (r *Resyncer) DispatchRender(router *task.Router, guildID string) {
	err := router.Dispatch(context.Background(), task.Task{
		Type:    TaskTypeRenderGuild,
		Payload: guildID,
		Options: task.Options{GroupKey: "panel"},
	})
	if err != nil {
		log.ErrorLoggerRaw().Error("Failed to dispatch panel render", "guildID", guildID, "error", err)
	}
}
