package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Compile-time check that SQLiteStore implements AlertRepo.
var _ AlertRepo = (*SQLiteStore)(nil)

func (s *SQLiteStore) EnqueueAlert(userID, assessmentID, payloadJSON string) (string, error) {
	var existingID string
	err := s.db.QueryRow(`SELECT id FROM crisis_alerts WHERE assessment_id = ?`, assessmentID).Scan(&existingID)
	if err == nil {
		slog.Debug("SQLiteStore.EnqueueAlert: already queued", "assessmentID", assessmentID, "existingID", existingID)
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("alert lookup failed: %w", err)
	}

	id := "alert_" + uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO crisis_alerts (id, user_id, assessment_id, payload_json, status, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'queued', 0, ?, ?)`,
		id, userID, assessmentID, payloadJSON, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("enqueue alert failed: %w", err)
	}
	slog.Debug("SQLiteStore.EnqueueAlert", "id", id, "userID", userID, "assessmentID", assessmentID)
	return id, nil
}

func (s *SQLiteStore) ClaimDueAlerts(now time.Time, limit int) ([]Alert, error) {
	now = now.UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("claim due alerts begin failed: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT `+alertColumns+` FROM crisis_alerts
		 WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		 ORDER BY created_at ASC LIMIT ?`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due alerts failed: %w", err)
	}
	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		alerts = append(alerts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim alerts iteration failed: %w", err)
	}

	for i := range alerts {
		if _, err := tx.Exec(
			`UPDATE crisis_alerts SET status = 'sending', locked_at = ?, updated_at = ? WHERE id = ?`,
			now, now, alerts[i].ID,
		); err != nil {
			return nil, fmt.Errorf("mark alert sending failed: %w", err)
		}
		locked := now
		alerts[i].Status = AlertStatusSending
		alerts[i].LockedAt = &locked
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim due alerts commit failed: %w", err)
	}
	return alerts, nil
}

func (s *SQLiteStore) MarkAlertSent(id string) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'sent', locked_at = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark alert sent failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) FailAlert(id string, errMsg string, nextAttemptAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'queued', attempts = attempts + 1, last_error = ?, next_attempt_at = ?, locked_at = NULL, updated_at = ? WHERE id = ?`,
		errMsg, nextAttemptAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("fail alert failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) AbandonAlert(id string, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'failed', attempts = attempts + 1, last_error = ?, locked_at = NULL, updated_at = ? WHERE id = ?`,
		errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("abandon alert failed: %w", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) RequeueStaleAlerts(staleBefore time.Time) (int, error) {
	result, err := s.db.Exec(
		`UPDATE crisis_alerts SET status = 'queued', locked_at = NULL, updated_at = ? WHERE status = 'sending' AND locked_at < ?`,
		time.Now().UTC(), staleBefore.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale alerts failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Info("SQLiteStore.RequeueStaleAlerts", "requeued", n)
	}
	return int(n), nil
}
