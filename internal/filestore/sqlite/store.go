// Package sqlite keeps filestore documents as rows of an embedded SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/constants"
	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements filestore.Store on a single table keyed by document path.
type Store struct {
	db    *sql.DB
	table string
	DSN   string
}

// Open connects to the database at path (":memory:" for an in-memory one)
// and creates the document table if needed.
func Open(path string) (*Store, error) {
	return OpenWithTable(path, constants.DefaultDocumentTable)
}

// OpenWithTable is Open with a custom table name.
func OpenWithTable(path, table string) (*Store, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	s := &Store{table: table, DSN: dsn(path)}
	if err := s.connect(); err != nil {
		return nil, err
	}
	if err := s.ensure(); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, constants.SQLiteBusyTimeoutMS)
}

func (s *Store) connect() error {
	db, err := sql.Open("sqlite", s.DSN)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// a single connection also keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConns)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)
	s.db = db

	common.GetLogger().WithStore("sqlite").Info("SQLite database connection established successfully", "dsn", s.DSN)
	return nil
}

func (s *Store) ensure() error {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (path TEXT PRIMARY KEY, content TEXT NOT NULL)", s.table)
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Read(path string) (string, bool) {
	content, err := s.Load(path)
	if err != nil {
		common.GetLogger().WithStore("sqlite").Debug("read failed", "path", path, "error", err)
		return "", false
	}
	return content, true
}

func (s *Store) Write(path, content string) bool {
	if err := s.Save(path, content); err != nil {
		common.GetLogger().WithStore("sqlite").Debug("write failed", "path", path, "error", err)
		return false
	}
	return true
}

// Load returns the stored document or sql.ErrNoRows when absent.
func (s *Store) Load(path string) (string, error) {
	var content string
	q := fmt.Sprintf("SELECT content FROM %s WHERE path = ?", s.table)
	err := s.db.QueryRow(q, path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return content, nil
}

// Save replaces the document stored under path.
func (s *Store) Save(path, content string) error {
	q := fmt.Sprintf("INSERT INTO %s(path, content) VALUES(?, ?) ON CONFLICT(path) DO UPDATE SET content = excluded.content", s.table)
	if _, err := s.db.Exec(q, path, content); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
