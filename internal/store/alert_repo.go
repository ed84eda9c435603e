// Package store provides the AlertRepo interface and model for restart-safe crisis alerts.
package store

import (
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert update targets an unknown ID.
var ErrAlertNotFound = errors.New("alert not found")

// AlertStatus represents the lifecycle state of a crisis alert.
type AlertStatus string

const (
	AlertStatusQueued  AlertStatus = "queued"
	AlertStatusSending AlertStatus = "sending"
	AlertStatusSent    AlertStatus = "sent"
	AlertStatusFailed  AlertStatus = "failed"
)

// Alert is a durable crisis alert raised by an assessment.
type Alert struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	AssessmentID  string      `json:"assessment_id"`
	PayloadJSON   string      `json:"payload_json"`
	Status        AlertStatus `json:"status"`
	Attempts      int         `json:"attempts"`
	NextAttemptAt *time.Time  `json:"next_attempt_at"`
	LockedAt      *time.Time  `json:"locked_at"`
	LastError     string      `json:"last_error"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// AlertRepo defines durable persistence for the crisis alert outbox.
type AlertRepo interface {
	// EnqueueAlert queues an alert for assessmentID. An assessment raises at
	// most one alert; enqueueing again returns the existing alert's ID.
	EnqueueAlert(userID, assessmentID, payloadJSON string) (string, error)

	// ClaimDueAlerts marks up to limit queued alerts whose next_attempt_at <= now
	// (or is unset) as sending and returns them, oldest first.
	ClaimDueAlerts(now time.Time, limit int) ([]Alert, error)

	// MarkAlertSent marks an alert as delivered.
	MarkAlertSent(id string) error

	// FailAlert records a delivery failure and schedules a retry at nextAttemptAt.
	FailAlert(id string, errMsg string, nextAttemptAt time.Time) error

	// AbandonAlert records a final delivery failure; the alert is not retried.
	AbandonAlert(id string, errMsg string) error

	// RequeueStaleAlerts resets alerts stuck in sending since before
	// staleBefore back to queued (crash recovery).
	RequeueStaleAlerts(staleBefore time.Time) (int, error)
}
