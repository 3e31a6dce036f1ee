package app

import (
	"fmt"
	"os"
	"time"

	"github.com/small-frappuccino/applygate/pkg/discord/commands"
	"github.com/small-frappuccino/applygate/pkg/discord/panel"
	"github.com/small-frappuccino/applygate/pkg/discord/session"
	"github.com/small-frappuccino/applygate/pkg/files"
	"github.com/small-frappuccino/applygate/pkg/intake"
	"github.com/small-frappuccino/applygate/pkg/log"
	"github.com/small-frappuccino/applygate/pkg/storage"
	"github.com/small-frappuccino/applygate/pkg/task"
	"github.com/small-frappuccino/applygate/pkg/util"
)

// archiveAdapter bridges the intake archive interface onto the SQLite store.
type archiveAdapter struct {
	store *storage.Store
}

func (a archiveAdapter) SaveApplication(rec intake.Record) error {
	answers := make([]storage.ArchivedAnswer, 0, len(rec.Answers))
	for _, pair := range rec.Answers {
		answers = append(answers, storage.ArchivedAnswer{Question: pair.Question, Answer: pair.Answer})
	}
	return a.store.SaveApplication(storage.ApplicationRecord{
		GuildID:     rec.GuildID,
		UserID:      rec.UserID,
		Answers:     answers,
		SubmittedAt: rec.SubmittedAt,
	})
}

// Run bootstraps the bot and blocks until shutdown. appName affects data and
// log paths; tokenEnv names the environment variable holding the bot token
// (with the $HOME/.local/bin/.env fallback).
func Run(appName, tokenEnv string) error {
	started := time.Now()

	// App name first (affects paths)
	util.SetAppName(appName)

	token, loadErr := util.LoadEnvWithLocalBinFallback(tokenEnv)

	// Logger first so subsequent steps can log meaningfully
	if err := log.SetupLogger(); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer log.GlobalLogger.Sync()

	if loadErr != nil {
		log.ApplicationLogger().Warn(fmt.Sprintf("Warning: %v", loadErr))
	}

	log.ApplicationLogger().Info(fmt.Sprintf("Starting %s...", appName))

	if token == "" {
		return fmt.Errorf("%s not set in environment or .env file", tokenEnv)
	}

	// Discord session
	discordSession, err := session.NewDiscordSession(token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	defer func() { _ = discordSession.Close() }()
	if discordSession.State == nil || discordSession.State.User == nil {
		return fmt.Errorf("discord session state not properly initialized")
	}
	log.DiscordLogger().Info(fmt.Sprintf("Authenticated as %s", discordSession.State.User.Username))

	// Persisted records
	configs := files.NewGuildConfigStore()
	if err := configs.Load(); err != nil {
		return fmt.Errorf("load guild configs: %w", err)
	}
	records := files.NewPanelRecordStore()
	if err := records.Load(); err != nil {
		return fmt.Errorf("load panel records: %w", err)
	}
	questions, err := files.LoadDefaultQuestionSet()
	if err != nil {
		return fmt.Errorf("load question set: %w", err)
	}

	// SQLite application archive (APPLYGATE_DB_PATH override)
	dbPath := util.ApplicationDBPath()
	if v := os.Getenv("APPLYGATE_DB_PATH"); v != "" {
		dbPath = v
	}
	archive := storage.NewStore(dbPath)
	if err := archive.Init(); err != nil {
		return fmt.Errorf("initialize application archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	// Intake pipeline
	gate := intake.NewGate()
	waiter := intake.NewWaiter(discordSession)
	discordSession.AddHandler(waiter.HandleMessageCreate)

	sessions := intake.NewManager(
		waiter,
		gate,
		configs,
		questions,
		intake.NewDiscordLogPublisher(discordSession),
		intake.NewDiscordRoleGrantor(discordSession),
		archiveAdapter{store: archive},
	)
	sessions.SetAnswerTimeout(util.EnvDuration("APPLYGATE_ANSWER_TIMEOUT", intake.DefaultAnswerTimeout))

	// Panel resync loop: once at startup, then on a fixed interval
	router := task.NewRouter(task.Defaults())
	defer router.Close()

	resyncer := panel.NewResyncer(discordSession, records, gate)
	resyncer.RegisterTasks(router)
	stopResync := resyncer.Schedule(router, util.EnvDuration("APPLYGATE_RESYNC_INTERVAL", panel.DefaultResyncInterval))
	defer stopResync()

	// Status changes trigger a single-shot render, independently of the
	// status change itself.
	gate.SetNotify(func(guildID string, _ intake.Status) {
		resyncer.DispatchRender(router, guildID)
	})

	// Commands and panel button
	manager := commands.NewManager(discordSession, commands.OwnerIDFromEnv())
	manager.Register(commands.NewSetupCommand(configs, records, gate))
	manager.Register(commands.NewTogglePanelCommand(gate))
	manager.RegisterComponent(panel.StartApplicationID, commands.NewApplyButtonHandler(sessions, manager.Responder()))
	if err := manager.SetupCommands(); err != nil {
		return fmt.Errorf("configure slash commands: %w", err)
	}

	log.ApplicationLogger().Info(fmt.Sprintf("%s initialized successfully in %s", appName, time.Since(started).Round(time.Millisecond)))
	log.ApplicationLogger().Info(fmt.Sprintf("%s running. Press Ctrl+C to stop...", appName))

	util.WaitForInterrupt()
	log.ApplicationLogger().Info(fmt.Sprintf("Stopping %s...", appName))

	if n := sessions.ActiveSessions(); n > 0 {
		log.ApplicationLogger().Warn("Shutting down with live application sessions; they will not survive restart", "sessions", n)
	}
	return nil
}
