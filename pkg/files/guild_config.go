package files

import (
	"sync"

	"github.com/small-frappuccino/applygate/pkg/errutil"
	"github.com/small-frappuccino/applygate/pkg/log"
	"github.com/small-frappuccino/applygate/pkg/util"
)

// GuildConfigStore is the durable guild -> configuration mapping. It is
// written only by the setup command and read by many concurrent sessions.
type GuildConfigStore struct {
	filePath    string
	mu          sync.RWMutex
	configs     map[string]GuildConfig
	jsonManager *util.JSONManager
}

// NewGuildConfigStore creates a store backed by the default config file path.
func NewGuildConfigStore() *GuildConfigStore {
	return NewGuildConfigStoreWithPath(util.GuildConfigFilePath())
}

// NewGuildConfigStoreWithPath creates a store backed by the given file.
func NewGuildConfigStoreWithPath(path string) *GuildConfigStore {
	return &GuildConfigStore{
		filePath:    path,
		configs:     make(map[string]GuildConfig),
		jsonManager: util.NewJSONManager(path),
	}
}

// Load reads the config file. A missing file leaves the store empty.
func (s *GuildConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configs := make(map[string]GuildConfig)
	if err := s.jsonManager.Load(&configs); err != nil {
		return errutil.HandleConfigError("read", s.filePath, func() error { return err })
	}
	s.configs = configs

	if len(configs) == 0 {
		log.ApplicationLogger().Info("No guilds configured yet", "path", s.filePath)
	} else {
		log.ApplicationLogger().Info("Guild configurations loaded", "path", s.filePath, "guilds", len(configs))
	}
	return nil
}

// Guild returns the configuration for guildID, or ErrGuildNotConfigured.
func (s *GuildConfigStore) Guild(guildID string) (GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		return GuildConfig{}, ErrGuildNotConfigured
	}
	return cfg, nil
}

// Set stores the configuration for guildID and persists the file.
func (s *GuildConfigStore) Set(guildID string, cfg GuildConfig) error {
	if guildID == "" {
		return NewValidationError("guild_id", "must not be empty")
	}
	if cfg.LogChannelID == "" || cfg.RoleID == "" {
		return NewValidationError("guild_config", "log channel and role are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[guildID] = cfg
	if err := s.jsonManager.Save(s.configs); err != nil {
		return errutil.HandleConfigError("write", s.filePath, func() error { return err })
	}
	return nil
}

// Path returns the backing file path.
func (s *GuildConfigStore) Path() string { return s.filePath }
