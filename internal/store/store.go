// Package store provides the SQLite translation memo.
//
// The memo lives for one session: the default path is ":memory:", so nothing
// survives the process and no offline cache is built.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite access. Concrete type, safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath and creates its tables.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees one database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		key TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_text TEXT NOT NULL,
		translated TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// GetTranslation returns the memoized translation of text, if any.
func (s *Store) GetTranslation(sourceLang, targetLang, text string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var translated string
	err := s.db.QueryRow(
		`SELECT translated FROM translations WHERE key = ?`,
		memoKey(sourceLang, targetLang, text),
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get translation: %w", err)
	}
	return translated, true, nil
}

// SaveTranslation memoizes a translation, replacing any previous value.
func (s *Store) SaveTranslation(sourceLang, targetLang, text, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO translations (key, source_lang, target_lang, source_text, translated, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		memoKey(sourceLang, targetLang, text), sourceLang, targetLang, text, translated, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}

// Count returns the number of memoized translations.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return n, nil
}

// memoKey hashes the language pair and text into a fixed-size key.
func memoKey(sourceLang, targetLang, text string) string {
	h := sha256.Sum256([]byte(sourceLang + "\x00" + targetLang + "\x00" + text))
	return hex.EncodeToString(h[:16])
}
