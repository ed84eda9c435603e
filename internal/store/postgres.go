// Package store provides storage backends for MoodLens.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	slog.Debug("Postgres ping successful")

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveUser(u models.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, created_at) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET created_at = EXCLUDED.created_at`, u.ID, u.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveUser failed", "error", err, "userID", u.ID)
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, created_at FROM users WHERE id = $1`, id).Scan(&u.ID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &u, nil
}

func (s *PostgresStore) AddMoodEntry(e models.HistoricalEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO mood_entries (id, user_id, period, emotion_id, mood_value, mood_name, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Period, e.EmotionID, e.MoodValue, e.MoodName, e.Timestamp)
	if err != nil {
		slog.Error("PostgresStore AddMoodEntry failed", "error", err, "userID", e.UserID)
		return fmt.Errorf("failed to insert mood entry for %s: %w", e.UserID, err)
	}
	slog.Debug("PostgresStore AddMoodEntry succeeded", "userID", e.UserID, "period", e.Period, "emotion", e.EmotionID)
	return nil
}

func (s *PostgresStore) ListMoodEntries(userID string, since time.Time) ([]models.HistoricalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, period, emotion_id, mood_value, mood_name, timestamp
		 FROM mood_entries WHERE user_id = $1 AND timestamp > $2
		 ORDER BY timestamp DESC, seq DESC`, userID, since)
	if err != nil {
		slog.Error("PostgresStore ListMoodEntries query failed", "error", err, "userID", userID)
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
	return entries, nil
}

func (s *PostgresStore) AddReflection(r models.Reflection) error {
	keywords, indicators, err := encodeReflectionTerms(r)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO reflections (id, user_id, period, text, keywords, crisis_indicators, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.UserID, r.Period, r.Text, keywords, indicators, r.Timestamp)
	if err != nil {
		slog.Error("PostgresStore AddReflection failed", "error", err, "userID", r.UserID)
		return fmt.Errorf("failed to insert reflection for %s: %w", r.UserID, err)
	}
	return nil
}

func (s *PostgresStore) ListReflections(userID string, since time.Time) ([]models.Reflection, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, period, text, keywords, crisis_indicators, timestamp
		 FROM reflections WHERE user_id = $1 AND timestamp > $2
		 ORDER BY timestamp DESC, seq DESC`, userID, since)
	if err != nil {
		slog.Error("PostgresStore ListReflections query failed", "error", err, "userID", userID)
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

func (s *PostgresStore) SaveAssessment(rec models.AssessmentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO assessments (id, user_id, created_at, assessment) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.UserID, rec.CreatedAt, []byte(rec.Assessment))
	if err != nil {
		slog.Error("PostgresStore SaveAssessment failed", "error", err, "userID", rec.UserID)
		return fmt.Errorf("failed to insert assessment for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *PostgresStore) ListAssessments(userID string, limit int) ([]models.AssessmentRecord, error) {
	query := `SELECT id, user_id, created_at, assessment FROM assessments
		 WHERE user_id = $1 ORDER BY created_at DESC, seq DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListAssessments query failed", "error", err, "userID", userID)
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

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}

// ---- AlertRepo ----

// Compile-time check that PostgresStore implements AlertRepo.
var _ AlertRepo = (*PostgresStore)(nil)

func (s *PostgresStore) EnqueueAlert(userID, assessmentID, payloadJSON string) (string, error) {
	id := "alert_" + uuid.NewString()
	now := time.Now()
	var storedID string
	// DO UPDATE with a no-op assignment so RETURNING yields the existing row on conflict.
	err := s.db.QueryRow(
		`INSERT INTO crisis_alerts (id, user_id, assessment_id, payload_json, status, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'queued', 0, $5, $5)
		 ON CONFLICT (assessment_id) DO UPDATE SET assessment_id = EXCLUDED.assessment_id
		 RETURNING id`,
		id, userID, assessmentID, payloadJSON, now,
	).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("enqueue alert failed: %w", err)
	}
	slog.Debug("PostgresStore.EnqueueAlert", "id", storedID, "userID", userID, "assessmentID", assessmentID)
	return storedID, nil
}

func (s *PostgresStore) ClaimDueAlerts(now time.Time, limit int) ([]Alert, error) {
	rows, err := s.db.Query(
		`UPDATE crisis_alerts SET status = 'sending', locked_at = $1, updated_at = $1
		 WHERE id IN (
		   SELECT id FROM crisis_alerts WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		   ORDER BY created_at ASC LIMIT $2
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+alertColumns,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due alerts failed: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim alerts iteration failed: %w", err)
	}
	return alerts, nil
}

func (s *PostgresStore) MarkAlertSent(id string) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'sent', locked_at = NULL, updated_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark alert sent failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) FailAlert(id string, errMsg string, nextAttemptAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'queued', attempts = attempts + 1, last_error = $1, next_attempt_at = $2, locked_at = NULL, updated_at = $3 WHERE id = $4`,
		errMsg, nextAttemptAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("fail alert failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) AbandonAlert(id string, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'failed', attempts = attempts + 1, last_error = $1, locked_at = NULL, updated_at = $2 WHERE id = $3`,
		errMsg, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("abandon alert failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) RequeueStaleAlerts(staleBefore time.Time) (int, error) {
	result, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'queued', locked_at = NULL, updated_at = $1 WHERE status = 'sending' AND locked_at < $2`,
		time.Now(), staleBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale alerts failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Info("PostgresStore.RequeueStaleAlerts", "requeued", n)
	}
	return int(n), nil
}
