package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// dmSender is the subset of discordgo.Session the waiter needs for outbound
// direct messages.
type dmSender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// pendingWait is one outstanding reply wait. The reply channel is buffered so
// the message handler never blocks; armed is flipped only after the prompt
// was delivered.
type pendingWait struct {
	reply chan string
	armed bool
}

// Waiter sends a prompt to a single recipient and resolves with exactly one
// reply or a timeout. At most one wait may be outstanding per recipient.
//
// Register HandleMessageCreate on the gateway session so DM replies are
// routed to their waits.
type Waiter struct {
	sender dmSender

	mu      sync.Mutex
	pending map[string]*pendingWait
}

// NewWaiter creates a waiter that sends DMs through sender.
func NewWaiter(sender dmSender) *Waiter {
	return &Waiter{
		sender:  sender,
		pending: make(map[string]*pendingWait),
	}
}

// Send delivers a plain DM without waiting for a reply.
func (w *Waiter) Send(userID, text string) error {
	channel, err := w.sender.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if _, err := w.sender.ChannelMessageSend(channel.ID, text); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Ask sends prompt to userID and blocks until exactly one reply arrives, the
// timeout elapses, or ctx is cancelled. The reply listener is armed only
// after the prompt was delivered; a send failure returns ErrDeliveryFailed
// and never starts the timer. On every exit path the listener is
// deregistered, so a reply arriving after the deadline is never
// misattributed to the expired wait.
func (w *Waiter) Ask(ctx context.Context, userID, prompt string, timeout time.Duration) (string, error) {
	pw := &pendingWait{reply: make(chan string, 1)}

	// Reserve the slot first so two concurrent waits for one recipient cannot
	// both send a prompt.
	w.mu.Lock()
	if _, exists := w.pending[userID]; exists {
		w.mu.Unlock()
		return "", ErrWaitConflict
	}
	w.pending[userID] = pw
	w.mu.Unlock()

	if err := w.Send(userID, prompt); err != nil {
		w.mu.Lock()
		delete(w.pending, userID)
		w.mu.Unlock()
		return "", err
	}

	w.mu.Lock()
	pw.armed = true
	w.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-pw.reply:
		// The handler removed the registration before delivering.
		return text, nil
	case <-timer.C:
		if w.deregister(userID, pw) {
			return "", ErrAnswerTimeout
		}
		// The reply won the race against the deadline.
		return <-pw.reply, nil
	case <-ctx.Done():
		if !w.deregister(userID, pw) {
			<-pw.reply // discard the racing reply
		}
		return "", ctx.Err()
	}
}

// deregister removes the wait if it is still registered. It reports false
// when the message handler already claimed it, in which case a reply is in
// flight on pw.reply.
func (w *Waiter) deregister(userID string, pw *pendingWait) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.pending[userID]; ok && cur == pw {
		delete(w.pending, userID)
		return true
	}
	return false
}

// HandleMessageCreate routes direct-message replies to their outstanding
// waits. Guild messages and bot authors are ignored; a DM from a user with no
// armed wait is dropped.
func (w *Waiter) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID != "" || m.Author == nil || m.Author.Bot {
		return
	}

	w.mu.Lock()
	pw, ok := w.pending[m.Author.ID]
	if !ok || !pw.armed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, m.Author.ID)
	w.mu.Unlock()

	log.DiscordLogger().Debug("DM reply matched to outstanding wait", "userID", m.Author.ID)
	pw.reply <- m.Content
}
