package util

import (
	"os"
	"path/filepath"
	"sync"
)

const defaultAppName = "applygate"

var (
	appNameMu sync.RWMutex
	appName   = defaultAppName
)

// SetAppName overrides the application name used to build data paths.
// Call it before any path accessor; the default is "applygate".
func SetAppName(name string) {
	if name == "" {
		return
	}
	appNameMu.Lock()
	appName = name
	appNameMu.Unlock()
}

// AppName returns the current application name.
func AppName() string {
	appNameMu.RLock()
	defer appNameMu.RUnlock()
	return appName
}

// DataDirPath returns the root directory for persisted files.
// APPLYGATE_DATA_DIR overrides the default of $HOME/.local/share/<app>.
func DataDirPath() string {
	if v := os.Getenv("APPLYGATE_DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", AppName())
	}
	return filepath.Join(home, ".local", "share", AppName())
}

// LogsDirPath returns the directory for log files.
func LogsDirPath() string {
	return filepath.Join(DataDirPath(), "logs")
}

// GuildConfigFilePath returns the path of the per-guild configuration file.
func GuildConfigFilePath() string {
	return filepath.Join(DataDirPath(), "config.json")
}

// PanelRecordFilePath returns the path of the persisted panel records file.
func PanelRecordFilePath() string {
	return filepath.Join(DataDirPath(), "embed.json")
}

// QuestionsFilePath returns the path of the question set file.
func QuestionsFilePath() string {
	return filepath.Join(DataDirPath(), "questions.json")
}

// ApplicationDBPath returns the path of the SQLite application archive.
func ApplicationDBPath() string {
	return filepath.Join(DataDirPath(), "applications.db")
}
