package commands

import (
	"github.com/bwmarrin/discordgo"
)

// Responder standardizes interaction responses. User-facing failures are
// always ephemeral so the panel channel stays free of noise.
type Responder struct {
	session *discordgo.Session
}

// NewResponder creates a responder bound to session.
func NewResponder(session *discordgo.Session) *Responder {
	return &Responder{session: session}
}

// Reply sends a plain visible response.
func (r *Responder) Reply(i *discordgo.InteractionCreate, content string) error {
	return r.respond(i, content, 0)
}

// Ephemeral sends a response only the interacting user can see.
func (r *Responder) Ephemeral(i *discordgo.InteractionCreate, content string) error {
	return r.respond(i, content, discordgo.MessageFlagsEphemeral)
}

// DeferEphemeral acknowledges the interaction so slower work can follow up
// with EditDeferred.
func (r *Responder) DeferEphemeral(i *discordgo.InteractionCreate) error {
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// EditDeferred replaces the content of a deferred response.
func (r *Responder) EditDeferred(i *discordgo.InteractionCreate, content string) error {
	_, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

func (r *Responder) respond(i *discordgo.InteractionCreate, content string, flags discordgo.MessageFlags) error {
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}
