package errutil

import (
	"fmt"

	"github.com/small-frappuccino/applygate/pkg/log"
)

// HandleDiscordError executes fn and logs any error as a Discord API failure.
// The error from fn is returned unmodified.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}

	err := fn()
	if err == nil {
		return nil
	}

	log.ErrorLoggerRaw().Error("Discord operation failed", "operation", operation, "error", err)
	return err
}

// HandleConfigError executes fn and logs any error as a configuration failure.
// The returned error is wrapped with the operation and path.
func HandleConfigError(operation, path string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}

	err := fn()
	if err == nil {
		return nil
	}

	log.ErrorLoggerRaw().Error("Config operation failed", "operation", operation, "path", path, "error", err)
	return fmt.Errorf("config %s %s: %w", operation, path, err)
}
