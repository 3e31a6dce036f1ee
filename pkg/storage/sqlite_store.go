package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps an embedded SQLite database holding the durable archive of
// completed applications. It uses modernc.org/sqlite for CGO-less builds.
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore creates a Store pointing at dbPath. Call Init before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Init opens the database, configures pragmas, and ensures the schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas for durability and concurrency
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS applications (
            id           INTEGER PRIMARY KEY AUTOINCREMENT,
            guild_id     TEXT NOT NULL,
            user_id      TEXT NOT NULL,
            answers      TEXT NOT NULL,
            submitted_at TIMESTAMP NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_applications_guild
            ON applications (guild_id, submitted_at);
    `); err != nil {
		_ = db.Close()
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ApplicationRecord is one archived application. Answers preserve ask order.
type ApplicationRecord struct {
	GuildID     string
	UserID      string
	Answers     []ArchivedAnswer
	SubmittedAt time.Time
}

// ArchivedAnswer is one question/answer pair.
type ArchivedAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SaveApplication inserts one completed application.
func (s *Store) SaveApplication(rec ApplicationRecord) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO applications (guild_id, user_id, answers, submitted_at) VALUES (?, ?, ?, ?)`,
		rec.GuildID, rec.UserID, string(answers), rec.SubmittedAt.UTC(),
	)
	return err
}

// CountApplications returns the number of archived applications for a guild.
func (s *Store) CountApplications(guildID string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM applications WHERE guild_id = ?`, guildID,
	).Scan(&n)
	return n, err
}

// RecentApplications returns up to limit applications for a guild, newest
// first.
func (s *Store) RecentApplications(guildID string, limit int) ([]ApplicationRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT guild_id, user_id, answers, submitted_at
         FROM applications
         WHERE guild_id = ?
         ORDER BY submitted_at DESC
         LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApplicationRecord
	for rows.Next() {
		var rec ApplicationRecord
		var answers string
		if err := rows.Scan(&rec.GuildID, &rec.UserID, &answers, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
