package intake

import (
	"fmt"
	"strings"
	"sync"
)

// Status is the per-guild panel admission state.
type Status int

const (
	// StatusOpen admits new application starts. Guilds without an explicit
	// status are open.
	StatusOpen Status = iota
	// StatusClosed rejects new application starts. Running sessions are not
	// affected.
	StatusClosed
)

// String returns the wire form used by the togglepanel command.
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus converts the command option value into a Status.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "open":
		return StatusOpen, nil
	case "close", "closed":
		return StatusClosed, nil
	default:
		return StatusOpen, fmt.Errorf("invalid panel status %q", v)
	}
}

// Gate is the per-guild open/closed flag gating new application starts.
//
// The state is process-lifetime only: every guild reverts to open on restart.
// That mirrors the panel's historical behavior and is intentional; operators
// re-close the panel after a deploy if needed.
type Gate struct {
	mu     sync.RWMutex
	status map[string]Status

	notify func(guildID string, status Status)
}

// NewGate creates an empty gate; all guilds default to open.
func NewGate() *Gate {
	return &Gate{status: make(map[string]Status)}
}

// SetNotify installs a hook invoked after every successful status change,
// used to trigger a single-shot panel re-render. The hook's outcome is
// independent of the status change; a render failure does not roll it back.
func (g *Gate) SetNotify(fn func(guildID string, status Status)) {
	g.mu.Lock()
	g.notify = fn
	g.mu.Unlock()
}

// SetStatus records the status for guildID. Values other than StatusOpen and
// StatusClosed are rejected.
func (g *Gate) SetStatus(guildID string, status Status) error {
	if guildID == "" {
		return fmt.Errorf("guild id must not be empty")
	}
	if status != StatusOpen && status != StatusClosed {
		return fmt.Errorf("invalid panel status %d", int(status))
	}

	g.mu.Lock()
	g.status[guildID] = status
	fn := g.notify
	g.mu.Unlock()

	if fn != nil {
		fn(guildID, status)
	}
	return nil
}

// Status returns the status for guildID, defaulting to StatusOpen.
func (g *Gate) Status(guildID string) Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status[guildID]
}
