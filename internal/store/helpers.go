package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/BTreeMap/MoodLens/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry scans a HistoricalEntry in column order
// id, user_id, period, emotion_id, mood_value, mood_name, timestamp.
func scanEntry(row rowScanner) (models.HistoricalEntry, error) {
	var e models.HistoricalEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Period, &e.EmotionID, &e.MoodValue, &e.MoodName, &e.Timestamp)
	if err != nil {
		return e, fmt.Errorf("scan mood entry failed: %w", err)
	}
	return e, nil
}

// scanReflection scans a Reflection in column order
// id, user_id, period, text, keywords, crisis_indicators, timestamp.
func scanReflection(row rowScanner) (models.Reflection, error) {
	var r models.Reflection
	var keywords, indicators string
	if err := row.Scan(&r.ID, &r.UserID, &r.Period, &r.Text, &keywords, &indicators, &r.Timestamp); err != nil {
		return r, fmt.Errorf("scan reflection failed: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &r.Keywords); err != nil {
		return r, fmt.Errorf("decode reflection keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(indicators), &r.CrisisIndicators); err != nil {
		return r, fmt.Errorf("decode reflection crisis indicators: %w", err)
	}
	return r, nil
}

// encodeReflectionTerms renders the keyword and indicator lists as JSON arrays.
// Nil lists are stored as empty arrays.
func encodeReflectionTerms(r models.Reflection) (string, string, error) {
	encode := func(terms []string) (string, error) {
		if terms == nil {
			terms = []string{}
		}
		b, err := json.Marshal(terms)
		return string(b), err
	}
	keywords, err := encode(r.Keywords)
	if err != nil {
		return "", "", fmt.Errorf("encode reflection keywords: %w", err)
	}
	indicators, err := encode(r.CrisisIndicators)
	if err != nil {
		return "", "", fmt.Errorf("encode reflection crisis indicators: %w", err)
	}
	return keywords, indicators, nil
}

// scanAssessment scans an AssessmentRecord in column order id, user_id, created_at, assessment.
func scanAssessment(row rowScanner) (models.AssessmentRecord, error) {
	var rec models.AssessmentRecord
	var doc []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.CreatedAt, &doc); err != nil {
		return rec, fmt.Errorf("scan assessment failed: %w", err)
	}
	rec.Assessment = json.RawMessage(doc)
	return rec, nil
}

// alertColumns lists the crisis_alerts columns in scanAlert order.
const alertColumns = `id, user_id, assessment_id, payload_json, status, attempts, next_attempt_at, locked_at, last_error, created_at, updated_at`

// scanAlert scans an Alert selected with alertColumns.
func scanAlert(row rowScanner) (Alert, error) {
	var a Alert
	var lastError sql.NullString
	var nextAttemptAt, lockedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.UserID, &a.AssessmentID, &a.PayloadJSON, &a.Status, &a.Attempts,
		&nextAttemptAt, &lockedAt, &lastError, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, fmt.Errorf("scan alert failed: %w", err)
	}
	a.LastError = lastError.String
	if nextAttemptAt.Valid {
		a.NextAttemptAt = &nextAttemptAt.Time
	}
	if lockedAt.Valid {
		a.LockedAt = &lockedAt.Time
	}
	return a, nil
}

// requireAffected turns a zero-row update into ErrAlertNotFound.
func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for alert %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrAlertNotFound)
	}
	return nil
}
