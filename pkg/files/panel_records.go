package files

import (
	"sync"

	"github.com/small-frappuccino/applygate/pkg/errutil"
	"github.com/small-frappuccino/applygate/pkg/util"
)

// PanelRecordStore tracks, per guild, where the persisted panel message lives
// and the embed snapshot to re-apply on resync.
type PanelRecordStore struct {
	filePath    string
	mu          sync.RWMutex
	records     map[string]PanelRecord
	jsonManager *util.JSONManager
}

// NewPanelRecordStore creates a store backed by the default embed file path.
func NewPanelRecordStore() *PanelRecordStore {
	return NewPanelRecordStoreWithPath(util.PanelRecordFilePath())
}

// NewPanelRecordStoreWithPath creates a store backed by the given file.
func NewPanelRecordStoreWithPath(path string) *PanelRecordStore {
	return &PanelRecordStore{
		filePath:    path,
		records:     make(map[string]PanelRecord),
		jsonManager: util.NewJSONManager(path),
	}
}

// Load reads the record file. A missing file leaves the store empty.
func (s *PanelRecordStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]PanelRecord)
	if err := s.jsonManager.Load(&records); err != nil {
		return errutil.HandleConfigError("read", s.filePath, func() error { return err })
	}
	s.records = records
	return nil
}

// Record returns the panel record for guildID.
func (s *PanelRecordStore) Record(guildID string) (PanelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[guildID]
	return rec, ok
}

// Set stores the panel record for guildID and persists the file.
func (s *PanelRecordStore) Set(guildID string, rec PanelRecord) error {
	if guildID == "" {
		return NewValidationError("guild_id", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[guildID] = rec
	if err := s.jsonManager.Save(s.records); err != nil {
		return errutil.HandleConfigError("write", s.filePath, func() error { return err })
	}
	return nil
}

// Snapshot returns a copy of all records, for iteration without holding the lock.
func (s *PanelRecordStore) Snapshot() map[string]PanelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]PanelRecord, len(s.records))
	for guildID, rec := range s.records {
		out[guildID] = rec
	}
	return out
}
