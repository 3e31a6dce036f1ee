package commands

import (
	"github.com/bwmarrin/discordgo"
)

// Command is one slash command owned by this bot.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresManageGuild() bool
}

// ComponentHandler handles one message-component interaction (button press),
// keyed by custom id.
type ComponentHandler func(ctx *Context)

// Context carries everything a handler needs for one interaction.
type Context struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	GuildID     string
	UserID      string
	IsOwner     bool
}

// Registry holds the bot's commands by name.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Command returns a command by name.
func (r *Registry) Command(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns all registered commands.
func (r *Registry) All() map[string]Command {
	return r.commands
}

// CommandError is a handler failure with a user-facing message.
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string {
	return e.Message
}

// NewCommandError creates a command error.
func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{Message: message, Ephemeral: ephemeral}
}
