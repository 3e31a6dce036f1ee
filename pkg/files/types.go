package files

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ## Record Types
//
// JSON layouts match the files the bot has historically written: config.json
// and embed.json are objects keyed by guild id, questions.json is a single
// object with a "questions" array. Existing files load without migration.

// GuildConfig holds the application-system configuration for one guild.
type GuildConfig struct {
	LogChannelID string `json:"logChannel"`
	RoleID       string `json:"role"`
}

// PanelRecord points at the persisted panel message of one guild.
// The message itself is owned by Discord and may be deleted out-of-band;
// readers must tolerate a stale MessageID.
type PanelRecord struct {
	ChannelID string          `json:"embedChannel"`
	Embed     json.RawMessage `json:"embed"`
	MessageID string          `json:"embedId"`
}

// QuestionSet is the ordered list of application prompts. It is loaded once at
// startup and shared read-only across all sessions.
type QuestionSet struct {
	Questions []string `json:"questions"`
}

// Len returns the number of questions.
func (qs *QuestionSet) Len() int {
	if qs == nil {
		return 0
	}
	return len(qs.Questions)
}

// ## Error Types

// ConfigError represents configuration persistence errors.
type ConfigError struct {
	Operation string
	Path      string
	Cause     error
}

func (e ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s failed for %s: %v", e.Operation, e.Path, e.Cause)
	}
	return fmt.Sprintf("config %s failed for %s", e.Operation, e.Path)
}

func (e ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(operation, path string, cause error) ConfigError {
	return ConfigError{Operation: operation, Path: path, Cause: cause}
}

// ValidationError represents a validation error with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// ErrGuildNotConfigured is returned when a guild has no stored configuration.
var ErrGuildNotConfigured = errors.New("guild not configured")
