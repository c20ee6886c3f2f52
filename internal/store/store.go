// Package store provides SQLite persistence for articles, highlights and
// newsletter subscribers.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/texyhq/texy/internal/logging"
)

// ErrNotFound is returned when a requested article or highlight does not exist.
var ErrNotFound = errors.New("not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
// Sortable and filterable fields are stored as columns; the full normalized
// article is kept as JSON in doc.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT,
		published TEXT,
		published_at INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		short_description TEXT,
		long_description TEXT,
		actionable INTEGER DEFAULT 0,
		confidence_score REAL DEFAULT 0,
		relevance_score REAL DEFAULT 0,
		sentiment_score REAL DEFAULT 0,
		trend_score REAL DEFAULT 0,
		source_name TEXT,
		fetched_at DATETIME NOT NULL,
		analyzed_at DATETIME,
		doc TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS highlights (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		text TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_highlights_article ON highlights(article_id);

	CREATE TABLE IF NOT EXISTS subscribers (
		email TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		tech_stack TEXT NOT NULL DEFAULT '[]',
		subscribed_at DATETIME NOT NULL,
		last_email_sent DATETIME,
		active INTEGER NOT NULL DEFAULT 1
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	// Databases created before analysis was stored lack analyzed_at.
	if !s.columnExists("articles", "analyzed_at") {
		if _, err := s.db.Exec("ALTER TABLE articles ADD COLUMN analyzed_at DATETIME"); err != nil {
			return fmt.Errorf("add analyzed_at column: %w", err)
		}
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_articles_analyzed ON articles(analyzed_at)"); err != nil {
		return fmt.Errorf("create analyzed_at index: %w", err)
	}
	return nil
}

// isValidIdentifier reports whether s is a plain SQL identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

// columnExists reports whether table has column, using pragma_table_info.
func (s *Store) columnExists(table, column string) bool {
	if !isValidIdentifier(table) || !isValidIdentifier(column) {
		logging.Error("invalid identifier in columnExists", "table", table, "column", column)
		return false
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name = ?", table)
	var count int
	if err := s.db.QueryRow(query, column).Scan(&count); err != nil {
		logging.Error("columnExists check failed", "table", table, "column", column, "error", err)
		return false
	}
	return count > 0
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
