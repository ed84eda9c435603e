// Package store provides storage backends for MoodLens.
//
// This file implements an SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/BTreeMap/MoodLens/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	// SQLite allows a single writer; serialise through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "db_path", dsn)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveUser(u models.User) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO users (id, created_at) VALUES (?, ?)`, u.ID, u.CreatedAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveUser failed", "error", err, "userID", u.ID)
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}
	slog.Debug("SQLiteStore SaveUser succeeded", "userID", u.ID)
	return nil
}

func (s *SQLiteStore) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, created_at FROM users WHERE id = ?`, id).Scan(&u.ID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUser not found", "userID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &u, nil
}

func (s *SQLiteStore) AddMoodEntry(e models.HistoricalEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO mood_entries (id, user_id, period, emotion_id, mood_value, mood_name, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Period, e.EmotionID, e.MoodValue, e.MoodName, e.Timestamp.UTC())
	if err != nil {
		slog.Error("SQLiteStore AddMoodEntry failed", "error", err, "userID", e.UserID)
		return fmt.Errorf("failed to insert mood entry for %s: %w", e.UserID, err)
	}
	slog.Debug("SQLiteStore AddMoodEntry succeeded", "userID", e.UserID, "period", e.Period, "emotion", e.EmotionID)
	return nil
}

func (s *SQLiteStore) ListMoodEntries(userID string, since time.Time) ([]models.HistoricalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, period, emotion_id, mood_value, mood_name, timestamp
		 FROM mood_entries WHERE user_id = ? AND timestamp > ?
		 ORDER BY timestamp DESC, rowid DESC`, userID, since.UTC())
	if err != nil {
		slog.Error("SQLiteStore ListMoodEntries query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoricalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mood entry rows: %w", err)
	}
	slog.Debug("SQLiteStore ListMoodEntries succeeded", "userID", userID, "count", len(entries))
	return entries, nil
}

func (s *SQLiteStore) AddReflection(r models.Reflection) error {
	keywords, indicators, err := encodeReflectionTerms(r)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO reflections (id, user_id, period, text, keywords, crisis_indicators, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Period, r.Text, keywords, indicators, r.Timestamp.UTC())
	if err != nil {
		slog.Error("SQLiteStore AddReflection failed", "error", err, "userID", r.UserID)
		return fmt.Errorf("failed to insert reflection for %s: %w", r.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) ListReflections(userID string, since time.Time) ([]models.Reflection, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, period, text, keywords, crisis_indicators, timestamp
		 FROM reflections WHERE user_id = ? AND timestamp > ?
		 ORDER BY timestamp DESC, rowid DESC`, userID, since.UTC())
	if err != nil {
		slog.Error("SQLiteStore ListReflections query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	var out []models.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reflection rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveAssessment(rec models.AssessmentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO assessments (id, user_id, created_at, assessment) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.CreatedAt.UTC(), string(rec.Assessment))
	if err != nil {
		slog.Error("SQLiteStore SaveAssessment failed", "error", err, "userID", rec.UserID)
		return fmt.Errorf("failed to insert assessment for %s: %w", rec.UserID, err)
	}
	slog.Debug("SQLiteStore SaveAssessment succeeded", "userID", rec.UserID, "assessmentID", rec.ID)
	return nil
}

func (s *SQLiteStore) ListAssessments(userID string, limit int) ([]models.AssessmentRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(
		`SELECT id, user_id, created_at, assessment FROM assessments
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		slog.Error("SQLiteStore ListAssessments query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var out []models.AssessmentRecord
	for rows.Next() {
		rec, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessment rows: %w", err)
	}
	return out, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
