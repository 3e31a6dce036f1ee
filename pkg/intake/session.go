package intake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/small-frappuccino/applygate/pkg/files"
	"github.com/small-frappuccino/applygate/pkg/log"
)

// State is the position of a session in its lifecycle.
type State int

const (
	StateStarting State = iota
	StateAwaitingAnswer
	StateCompleting
	StateDone
	StateAbandoned
)

// Messages sent to applicants over DM.
const (
	msgWelcome     = "Welcome to the application process! Let's get started."
	msgTimeout     = "You did not respond in time. Please restart your application."
	msgCompleted   = "Your application has been submitted. Thank you!"
	msgSoftWarning = "Your application was recorded, but part of the follow-up failed (log or role assignment may be delayed). A moderator will take a look."
)

// DefaultAnswerTimeout bounds how long an applicant has to answer each question.
const DefaultAnswerTimeout = 60 * time.Second

// AnswerPair is one answered question. Order of pairs is ask order.
type AnswerPair struct {
	Question string
	Answer   string
}

// Record is a completed application handed to the log publisher and archive.
type Record struct {
	GuildID     string
	UserID      string
	Answers     []AnswerPair
	SubmittedAt time.Time
}

// Prompter abstracts the DM exchange primitive. *Waiter satisfies it.
type Prompter interface {
	Ask(ctx context.Context, userID, prompt string, timeout time.Duration) (string, error)
	Send(userID, text string) error
}

// LogPublisher publishes a completed application to a guild's log channel.
type LogPublisher interface {
	Publish(logChannelID string, rec Record) error
}

// RoleGrantor grants the configured role to an applicant.
type RoleGrantor interface {
	Grant(guildID, userID, roleID string) error
}

// Archive durably stores completed applications. Optional; nil disables it.
type Archive interface {
	SaveApplication(rec Record) error
}

// session is one user's in-progress exchange. It exclusively owns its answers
// slice and its outstanding wait; no other component mutates them.
type session struct {
	guildID   string
	userID    string
	cursor    int
	answers   []AnswerPair
	state     State
	startedAt time.Time
}

// Manager enforces the single-live-session-per-user invariant and drives each
// session's state machine on its own goroutine.
type Manager struct {
	prompter  Prompter
	gate      *Gate
	configs   *files.GuildConfigStore
	questions *files.QuestionSet
	publisher LogPublisher
	grantor   RoleGrantor
	archive   Archive

	answerTimeout time.Duration

	mu     sync.Mutex
	active map[string]*session // keyed by user id

	wg sync.WaitGroup
}

// NewManager wires a session manager. archive may be nil.
func NewManager(
	prompter Prompter,
	gate *Gate,
	configs *files.GuildConfigStore,
	questions *files.QuestionSet,
	publisher LogPublisher,
	grantor RoleGrantor,
	archive Archive,
) *Manager {
	return &Manager{
		prompter:      prompter,
		gate:          gate,
		configs:       configs,
		questions:     questions,
		publisher:     publisher,
		grantor:       grantor,
		archive:       archive,
		answerTimeout: DefaultAnswerTimeout,
		active:        make(map[string]*session),
	}
}

// SetAnswerTimeout overrides the per-question reply deadline.
func (m *Manager) SetAnswerTimeout(d time.Duration) {
	if d > 0 {
		m.answerTimeout = d
	}
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Wait blocks until all running sessions have finished. Intended for
// shutdown and tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Start admits a new application for userID in guildID. It validates the
// gate, guild configuration, and the one-session-per-user invariant, sends
// the welcome message, and on success spawns the question loop. A returned
// error means no session was retained.
func (m *Manager) Start(guildID, userID string) error {
	if _, err := m.configs.Guild(guildID); err != nil {
		return ErrConfigMissing
	}
	if m.gate.Status(guildID) != StatusOpen {
		return ErrPanelClosed
	}
	if m.questions.Len() == 0 {
		return ErrNoQuestions
	}

	s := &session{
		guildID:   guildID,
		userID:    userID,
		state:     StateStarting,
		startedAt: time.Now(),
	}

	m.mu.Lock()
	if _, exists := m.active[userID]; exists {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.active[userID] = s
	m.mu.Unlock()

	// The welcome DM doubles as the reachability probe: if it fails, the user
	// is told on the originating interaction to open their DMs and no session
	// survives.
	if err := m.prompter.Send(userID, msgWelcome); err != nil {
		m.remove(userID)
		return ErrDeliveryFailed
	}

	m.wg.Add(1)
	go m.run(s)
	return nil
}

func (m *Manager) remove(userID string) {
	m.mu.Lock()
	delete(m.active, userID)
	m.mu.Unlock()
}

// run drives the session from the first question to Done or Abandoned.
func (m *Manager) run(s *session) {
	defer m.wg.Done()
	defer m.remove(s.userID)

	ctx := context.Background()

	s.state = StateAwaitingAnswer
	for s.cursor < m.questions.Len() {
		question := m.questions.Questions[s.cursor]

		answer, err := m.prompter.Ask(ctx, s.userID, question, m.answerTimeout)
		if err != nil {
			s.state = StateAbandoned
			if errors.Is(err, ErrAnswerTimeout) {
				_ = m.prompter.Send(s.userID, msgTimeout)
				log.ApplicationLogger().Info("Application abandoned on timeout",
					"guildID", s.guildID, "userID", s.userID, "question", s.cursor)
			} else {
				log.ErrorLoggerRaw().Error("Application aborted",
					"guildID", s.guildID, "userID", s.userID, "question", s.cursor, "error", err)
			}
			return
		}

		s.answers = append(s.answers, AnswerPair{Question: question, Answer: answer})
		s.cursor++
	}

	s.state = StateCompleting
	m.complete(s)
	s.state = StateDone
}

// complete publishes the log record, grants the role, and archives the
// application. Publish and grant are attempted independently; their failures
// are surfaced to the user as a soft warning but do not fail the session,
// since the conversational exchange itself succeeded.
func (m *Manager) complete(s *session) {
	cfg, err := m.configs.Guild(s.guildID)
	if err != nil {
		// Configuration vanished mid-session; nothing left to deliver to.
		log.ErrorLoggerRaw().Error("Guild configuration missing at completion",
			"guildID", s.guildID, "userID", s.userID)
		return
	}

	rec := Record{
		GuildID:     s.guildID,
		UserID:      s.userID,
		Answers:     s.answers,
		SubmittedAt: time.Now().UTC(),
	}

	publishErr := m.publisher.Publish(cfg.LogChannelID, rec)
	if publishErr != nil {
		log.ErrorLoggerRaw().Error("Failed to publish application log",
			"guildID", s.guildID, "userID", s.userID, "channelID", cfg.LogChannelID, "error", publishErr)
	}

	grantErr := m.grantor.Grant(s.guildID, s.userID, cfg.RoleID)
	if grantErr != nil {
		log.ErrorLoggerRaw().Error("Failed to grant application role",
			"guildID", s.guildID, "userID", s.userID, "roleID", cfg.RoleID, "error", grantErr)
	}

	if m.archive != nil {
		if err := m.archive.SaveApplication(rec); err != nil {
			log.ErrorLoggerRaw().Error("Failed to archive application",
				"guildID", s.guildID, "userID", s.userID, "error", err)
		}
	}

	if publishErr != nil || grantErr != nil {
		_ = m.prompter.Send(s.userID, msgSoftWarning)
	} else {
		_ = m.prompter.Send(s.userID, msgCompleted)
	}

	log.ApplicationLogger().Info("Application completed",
		"guildID", s.guildID, "userID", s.userID,
		"answers", len(rec.Answers),
		"duration", time.Since(s.startedAt).Round(time.Millisecond))
}
