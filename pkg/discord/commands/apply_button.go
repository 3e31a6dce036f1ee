package commands

import (
	"errors"

	"github.com/small-frappuccino/applygate/pkg/intake"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// User-facing rejection messages for the panel button. All of them are
// delivered as ephemeral follow-ups on the originating interaction.
const (
	msgApplyStarted   = "Check your DMs to begin your application!"
	msgApplyNoConfig  = "Applications are not set up on this server."
	msgApplyClosed    = "Applications are closed."
	msgApplyActive    = "You already have an application in progress. Check your DMs."
	msgApplyNoDM      = "I cannot DM you at the moment. Please make sure your DMs are open."
	msgApplyUnavail   = "Applications are not available right now. Please try again later."
	msgApplyGuildOnly = "This button only works inside a server."
)

// NewApplyButtonHandler returns the component handler for the panel button.
// The interaction is acknowledged with a deferred ephemeral response first;
// the session start (which sends the welcome DM) then runs off the gateway
// handler goroutine and edits the acknowledgment with the outcome.
func NewApplyButtonHandler(sessions *intake.Manager, responder *Responder) ComponentHandler {
	return func(ctx *Context) {
		if ctx.GuildID == "" {
			_ = responder.Ephemeral(ctx.Interaction, msgApplyGuildOnly)
			return
		}

		if err := responder.DeferEphemeral(ctx.Interaction); err != nil {
			log.ErrorLoggerRaw().Error("Failed to acknowledge panel button",
				"guildID", ctx.GuildID, "userID", ctx.UserID, "error", err)
			return
		}

		go func() {
			outcome := msgApplyStarted
			if err := sessions.Start(ctx.GuildID, ctx.UserID); err != nil {
				outcome = startRejectionMessage(err)
				log.ApplicationLogger().Info("Application start rejected",
					"guildID", ctx.GuildID, "userID", ctx.UserID, "reason", err)
			}
			if err := responder.EditDeferred(ctx.Interaction, outcome); err != nil {
				log.ErrorLoggerRaw().Error("Failed to deliver panel button response",
					"guildID", ctx.GuildID, "userID", ctx.UserID, "error", err)
			}
		}()
	}
}

func startRejectionMessage(err error) string {
	switch {
	case errors.Is(err, intake.ErrConfigMissing):
		return msgApplyNoConfig
	case errors.Is(err, intake.ErrPanelClosed):
		return msgApplyClosed
	case errors.Is(err, intake.ErrSessionActive):
		return msgApplyActive
	case errors.Is(err, intake.ErrDeliveryFailed):
		return msgApplyNoDM
	default:
		return msgApplyUnavail
	}
}
