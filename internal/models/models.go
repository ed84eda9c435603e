// Package models defines the core data structures for MoodLens.
//
// It includes the persisted mood, reflection and assessment records shared
// between the store, the check-in pipeline and the API, plus the JSON
// envelope every API response uses.
package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Validation constants for input validation
const (
	// MaxPeriodLength defines the maximum allowed length of a period label
	MaxPeriodLength = 64
	// MaxReflectionLength defines the maximum allowed length of a single reflection text
	MaxReflectionLength = 4096
	// MaxObservationsCount defines the maximum number of periods accepted per check-in
	MaxObservationsCount = 8
)

// Error variables for better error handling and testability
var (
	ErrNoMoods             = errors.New("moods are required")
	ErrTooManyMoods        = errors.New("too many mood observations")
	ErrEmptyPeriod         = errors.New("period label cannot be empty")
	ErrPeriodTooLong       = errors.New("period label exceeds maximum length")
	ErrEmptyEmotion        = errors.New("emotion id cannot be empty")
	ErrReflectionTooLong   = errors.New("reflection exceeds maximum length")
	ErrTooManyReflections  = errors.New("too many reflections")
	ErrMissingUserID       = errors.New("user id is required")
	ErrInvalidLimit        = errors.New("limit must be a non-negative integer")
	ErrInvalidTrendPayload = errors.New("trend payload is invalid")
)

// User is an opaque per-user identity. MoodLens stores no personal details.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoricalEntry is one stored mood observation. MoodValue and MoodName are
// derived from the emotion taxonomy when the entry is written.
type HistoricalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Period    string    `json:"period"`
	EmotionID string    `json:"emotion_id"`
	MoodValue float64   `json:"mood_value"`
	MoodName  string    `json:"mood_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Reflection is one stored free-text reflection for a period. Keywords and
// CrisisIndicators are extracted from Text when the reflection is written.
type Reflection struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Period           string    `json:"period"`
	Text             string    `json:"text"`
	Keywords         []string  `json:"keywords"`
	CrisisIndicators []string  `json:"crisis_indicators"`
	Timestamp        time.Time `json:"timestamp"`
}

// AssessmentRecord is a persisted assessment. The assessment itself is kept as
// an opaque JSON document so the store does not depend on the engine's types.
type AssessmentRecord struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Assessment json.RawMessage `json:"assessment"`
}

// CheckInRequest represents the payload for submitting a check-in.
type CheckInRequest struct {
	Moods       map[string]string `json:"moods" jsonschema:"required,description=Emotion id selected for each period"`
	Reflections map[string]string `json:"reflections,omitempty" jsonschema:"description=Free-text reflection for each period"`
}

// Validate performs structural validation on a check-in payload.
// Unknown emotion ids are accepted; they resolve to the neutral default.
func (r *CheckInRequest) Validate() error {
	if len(r.Moods) == 0 {
		return ErrNoMoods
	}
	if len(r.Moods) > MaxObservationsCount {
		return ErrTooManyMoods
	}
	for period, id := range r.Moods {
		if err := validatePeriod(period); err != nil {
			return err
		}
		if strings.TrimSpace(id) == "" {
			return ErrEmptyEmotion
		}
	}
	if len(r.Reflections) > MaxObservationsCount {
		return ErrTooManyReflections
	}
	for period, text := range r.Reflections {
		if err := validatePeriod(period); err != nil {
			return err
		}
		if len(text) > MaxReflectionLength {
			return ErrReflectionTooLong
		}
	}
	return nil
}

func validatePeriod(period string) error {
	if strings.TrimSpace(period) == "" {
		return ErrEmptyPeriod
	}
	if len(period) > MaxPeriodLength {
		return ErrPeriodTooLong
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusRecorded indicates data was successfully recorded via API.
	APIStatusRecorded APIStatus = "recorded"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Recorded creates a recorded API response carrying the stored result.
func Recorded(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusRecorded), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
