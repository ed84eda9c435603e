package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/MoodLens/internal/models"
)

// mockTB records failures instead of failing the enclosing test.
type mockTB struct {
	testing.TB
	failed   bool
	errorMsg string
}

type fatalPanic struct{}

func (m *mockTB) Helper() {}

func (m *mockTB) Error(args ...interface{}) {
	m.failed = true
	m.errorMsg = fmt.Sprint(args...)
}

func (m *mockTB) Errorf(format string, args ...interface{}) {
	m.failed = true
	m.errorMsg = fmt.Sprintf(format, args...)
}

func (m *mockTB) Fatalf(format string, args ...interface{}) {
	m.Errorf(format, args...)
	panic(fatalPanic{})
}

// run calls fn with m and swallows a Fatalf panic.
func (m *mockTB) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(fatalPanic); !ok {
				panic(r)
			}
		}
	}()
	fn()
}

func TestNewTestServer(t *testing.T) {
	srv, st := NewTestServer()
	if srv == nil || st == nil {
		t.Fatal("NewTestServer returned nil")
	}
	rr := Do(srv, CreateHTTPRequest(t, http.MethodGet, "/health", nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
}

func TestAssertHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		expected   int
		actual     int
		shouldFail bool
	}{
		{"matching status codes", 200, 200, false},
		{"different status codes", 200, 404, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTB{}
			AssertHTTPStatus(m, tt.expected, tt.actual, "test context")
			if m.failed != tt.shouldFail {
				t.Errorf("failed = %v, want %v", m.failed, tt.shouldFail)
			}
		})
	}
}

func TestAssertJSONResponse(t *testing.T) {
	tests := []struct {
		name       string
		jsonBody   string
		shouldFail bool
	}{
		{"valid JSON with matching status", `{"status":"ok","result":"test"}`, false},
		{"valid JSON with different status", `{"status":"error","message":"test"}`, true},
		{"invalid JSON", `{"status":}`, true},
		{"missing status field", `{"result":"test"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTB{}
			rr := httptest.NewRecorder()
			rr.Body.WriteString(tt.jsonBody)

			var response map[string]interface{}
			m.run(func() { response = AssertJSONResponse(m, rr, models.APIStatusOK) })

			if m.failed != tt.shouldFail {
				t.Errorf("failed = %v, want %v (%s)", m.failed, tt.shouldFail, m.errorMsg)
			}
			if !tt.shouldFail && response == nil {
				t.Error("expected response map to be returned")
			}
		})
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
	}{
		{"GET request with no body", http.MethodGet, "/emotions", nil},
		{"POST request with map body", http.MethodPost, "/assess", map[string]string{"key": "value"}},
		{"POST request with struct body", http.MethodPost, "/users/u_1/checkins", models.CheckInRequest{Moods: map[string]string{"today": "calm"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateHTTPRequest(t, tt.method, tt.url, tt.body)
			if req.Method != tt.method {
				t.Errorf("method = %s, want %s", req.Method, tt.method)
			}
			if req.URL.Path != tt.url {
				t.Errorf("path = %s, want %s", req.URL.Path, tt.url)
			}
		})
	}
}

func TestSeedMoodHistory(t *testing.T) {
	_, st := NewTestServer()
	SeedMoodHistory(t, st, "u_1", []string{"sad", "calm"})
	entries, err := st.ListMoodEntries("u_1", FixedNow.AddDate(0, 0, -30))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].EmotionID != "sad" || !entries[0].Timestamp.Equal(FixedNow) {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].MoodValue != 1 || entries[0].MoodName != "Sad" || entries[1].MoodValue != 4 {
		t.Errorf("values not taken from the taxonomy: %+v", entries)
	}
}

func TestMustJSONRoundTrip(t *testing.T) {
	in := models.CheckInRequest{Moods: map[string]string{"today": "calm"}}
	var out models.CheckInRequest
	MustUnmarshalJSON(t, MustMarshalJSON(t, in), &out)
	if out.Moods["today"] != "calm" {
		t.Errorf("round trip = %+v", out)
	}
}
