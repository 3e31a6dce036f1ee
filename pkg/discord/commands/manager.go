package commands

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// Manager owns the command registry, routes interactions, and keeps the
// globally registered slash commands in sync with the code.
type Manager struct {
	session    *discordgo.Session
	registry   *Registry
	responder  *Responder
	components map[string]ComponentHandler
	ownerID    string
}

// NewManager creates a manager. ownerID may be empty; then only Manage Server
// holders pass the permission check.
func NewManager(session *discordgo.Session, ownerID string) *Manager {
	return &Manager{
		session:    session,
		registry:   NewRegistry(),
		responder:  NewResponder(session),
		components: make(map[string]ComponentHandler),
		ownerID:    ownerID,
	}
}

// Responder returns the shared responder.
func (m *Manager) Responder() *Responder { return m.responder }

// Register adds a slash command.
func (m *Manager) Register(cmd Command) {
	m.registry.Register(cmd)
}

// RegisterComponent adds a handler for a message-component custom id.
func (m *Manager) RegisterComponent(customID string, handler ComponentHandler) {
	m.components[customID] = handler
}

// SetupCommands installs the interaction handler and synchronizes global
// slash commands incrementally: create missing, update changed, delete
// orphans.
func (m *Manager) SetupCommands() error {
	m.session.AddHandler(m.HandleInteraction)

	appID := m.session.State.User.ID
	registered, err := m.session.ApplicationCommands(appID, "")
	if err != nil {
		return fmt.Errorf("fetch registered commands: %w", err)
	}

	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	created, updated, unchanged := 0, 0, 0
	for name, cmd := range m.registry.All() {
		desired := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}

		if existing, ok := regByName[name]; ok {
			if commandsEqual(existing, desired) {
				unchanged++
				continue
			}
			if _, err := m.session.ApplicationCommandEdit(appID, "", existing.ID, desired); err != nil {
				return fmt.Errorf("update command %q: %w", name, err)
			}
			updated++
		} else {
			if _, err := m.session.ApplicationCommandCreate(appID, "", desired); err != nil {
				return fmt.Errorf("create command %q: %w", name, err)
			}
			created++
		}
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := m.registry.Command(rc.Name); !exists {
			if err := m.session.ApplicationCommandDelete(appID, "", rc.ID); err != nil {
				log.ApplicationLogger().Warn("Failed to remove orphan command", "command", rc.Name, "error", err)
				continue
			}
			deleted++
		}
	}

	log.ApplicationLogger().Info("Command synchronization completed",
		"created", created, "updated", updated, "deleted", deleted, "unchanged", unchanged)
	return nil
}

// HandleInteraction routes slash-command and component interactions.
func (m *Manager) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		m.handleSlashCommand(i)
	case discordgo.InteractionMessageComponent:
		if handler, ok := m.components[i.MessageComponentData().CustomID]; ok {
			handler(m.buildContext(i))
		}
	}
}

func (m *Manager) handleSlashCommand(i *discordgo.InteractionCreate) {
	ctx := m.buildContext(i)
	name := i.ApplicationCommandData().Name

	cmd, exists := m.registry.Command(name)
	if !exists {
		_ = m.responder.Ephemeral(i, "Unknown command.")
		return
	}

	if cmd.RequiresGuild() && ctx.GuildID == "" {
		_ = m.responder.Ephemeral(i, "This command can only be used in a server.")
		return
	}

	if cmd.RequiresManageGuild() && !m.hasManageGuild(ctx) {
		_ = m.responder.Ephemeral(i, "You do not have permission to use this command.")
		return
	}

	if err := cmd.Handle(ctx); err != nil {
		log.ErrorLoggerRaw().Error("Command execution failed", "command", name, "error", err)

		if cmdErr, ok := err.(*CommandError); ok {
			if cmdErr.Ephemeral {
				_ = m.responder.Ephemeral(i, cmdErr.Message)
			} else {
				_ = m.responder.Reply(i, cmdErr.Message)
			}
			return
		}
		_ = m.responder.Ephemeral(i, "An error occurred while executing the command.")
	}
}

func (m *Manager) buildContext(i *discordgo.InteractionCreate) *Context {
	ctx := &Context{
		Session:     m.session,
		Interaction: i,
		GuildID:     i.GuildID,
	}
	if i.Member != nil && i.Member.User != nil {
		ctx.UserID = i.Member.User.ID
	} else if i.User != nil {
		ctx.UserID = i.User.ID
	}
	ctx.IsOwner = m.ownerID != "" && ctx.UserID == m.ownerID
	return ctx
}

// hasManageGuild reports whether the interacting user is the bot owner or
// holds Manage Server in the guild.
func (m *Manager) hasManageGuild(ctx *Context) bool {
	if ctx.IsOwner {
		return true
	}
	member := ctx.Interaction.Member
	if member == nil {
		return false
	}
	return member.Permissions&discordgo.PermissionManageGuild != 0
}

// commandsEqual compares the registered form of a command against the desired
// one, ignoring server-assigned fields.
func commandsEqual(existing, desired *discordgo.ApplicationCommand) bool {
	if existing.Name != desired.Name || existing.Description != desired.Description {
		return false
	}
	if len(existing.Options) != len(desired.Options) {
		return false
	}
	for idx, opt := range desired.Options {
		got := existing.Options[idx]
		if got.Type != opt.Type || got.Name != opt.Name ||
			got.Description != opt.Description || got.Required != opt.Required {
			return false
		}
		if len(got.Choices) != len(opt.Choices) {
			return false
		}
	}
	return true
}

// OwnerIDFromEnv reads the configured bot owner, if any.
func OwnerIDFromEnv() string {
	return os.Getenv("APPLYGATE_OWNER_ID")
}
