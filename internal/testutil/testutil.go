// Package testutil provides common test utilities and helpers for MoodLens tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BTreeMap/MoodLens/internal/api"
	"github.com/BTreeMap/MoodLens/internal/checkin"
	"github.com/BTreeMap/MoodLens/internal/emotion"
	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/BTreeMap/MoodLens/internal/store"
)

// FixedNow is the clock used by NewTestServer.
var FixedNow = time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

// NewTestServer creates a test API server backed by an in-memory store and a fixed clock.
func NewTestServer() (*api.Server, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	svc := checkin.NewService(st, checkin.WithClock(func() time.Time { return FixedNow }))
	return api.NewServer(svc), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus models.APIStatus) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != string(expectedStatus) {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = bytes.NewBuffer(MustMarshalJSON(t, body))
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// Do serves req through h and returns the recorded response.
func Do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// SeedMoodHistory adds one entry per emotion id, one day apart going back from
// FixedNow. Values and names come from the emotion taxonomy.
func SeedMoodHistory(t testing.TB, st store.Store, userID string, emotionIDs []string) {
	t.Helper()
	for i, id := range emotionIDs {
		d := emotion.Resolve(id)
		e := models.HistoricalEntry{
			ID:        "m_seed_" + id + "_" + string(rune('a'+i)),
			UserID:    userID,
			Period:    "today",
			EmotionID: id,
			MoodValue: float64(d.Value),
			MoodName:  d.Name,
			Timestamp: FixedNow.Add(-time.Duration(i) * 24 * time.Hour),
		}
		if err := st.AddMoodEntry(e); err != nil {
			t.Fatalf("failed to add mood entry: %v", err)
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t testing.TB, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
