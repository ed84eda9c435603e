package store

import (
	"slices"
	"sync"
	"time"

	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/google/uuid"
)

// InMemoryStore keeps everything in process memory. It is safe for concurrent use.
type InMemoryStore struct {
	mu          sync.RWMutex
	users       map[string]models.User
	entries     []models.HistoricalEntry
	reflections []models.Reflection
	assessments []models.AssessmentRecord
	alerts      []Alert
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]models.User)}
}

func (s *InMemoryStore) SaveUser(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *InMemoryStore) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *InMemoryStore) AddMoodEntry(e models.HistoricalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// ListMoodEntries scans newest-inserted first so equal timestamps keep the
// same order the SQL backends produce.
func (s *InMemoryStore) ListMoodEntries(userID string, since time.Time) ([]models.HistoricalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HistoricalEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.UserID == userID && e.Timestamp.After(since) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b models.HistoricalEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

func (s *InMemoryStore) AddReflection(r models.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Keywords = slices.Clone(r.Keywords)
	r.CrisisIndicators = slices.Clone(r.CrisisIndicators)
	s.reflections = append(s.reflections, r)
	return nil
}

func (s *InMemoryStore) ListReflections(userID string, since time.Time) ([]models.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reflection
	for i := len(s.reflections) - 1; i >= 0; i-- {
		r := s.reflections[i]
		if r.UserID == userID && r.Timestamp.After(since) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reflection) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

func (s *InMemoryStore) SaveAssessment(rec models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Assessment = slices.Clone(rec.Assessment)
	s.assessments = append(s.assessments, rec)
	return nil
}

func (s *InMemoryStore) ListAssessments(userID string, limit int) ([]models.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AssessmentRecord
	for i := len(s.assessments) - 1; i >= 0; i-- {
		if s.assessments[i].UserID == userID {
			out = append(out, s.assessments[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.AssessmentRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

// ---- AlertRepo ----

func (s *InMemoryStore) EnqueueAlert(userID, assessmentID, payloadJSON string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.AssessmentID == assessmentID {
			return a.ID, nil
		}
	}
	now := time.Now()
	a := Alert{
		ID:           "alert_" + uuid.NewString(),
		UserID:       userID,
		AssessmentID: assessmentID,
		PayloadJSON:  payloadJSON,
		Status:       AlertStatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.alerts = append(s.alerts, a)
	return a.ID, nil
}

func (s *InMemoryStore) ClaimDueAlerts(now time.Time, limit int) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Alert
	for i := range s.alerts {
		if limit > 0 && len(out) >= limit {
			break
		}
		a := &s.alerts[i]
		if a.Status != AlertStatusQueued || (a.NextAttemptAt != nil && a.NextAttemptAt.After(now)) {
			continue
		}
		locked := now
		a.Status = AlertStatusSending
		a.LockedAt = &locked
		a.UpdatedAt = now
		out = append(out, *a)
	}
	return out, nil
}

func (s *InMemoryStore) MarkAlertSent(id string) error {
	return s.updateAlert(id, func(a *Alert) {
		a.Status = AlertStatusSent
		a.LockedAt = nil
	})
}

func (s *InMemoryStore) FailAlert(id string, errMsg string, nextAttemptAt time.Time) error {
	return s.updateAlert(id, func(a *Alert) {
		a.Status = AlertStatusQueued
		a.Attempts++
		a.LastError = errMsg
		a.NextAttemptAt = &nextAttemptAt
		a.LockedAt = nil
	})
}

func (s *InMemoryStore) AbandonAlert(id string, errMsg string) error {
	return s.updateAlert(id, func(a *Alert) {
		a.Status = AlertStatusFailed
		a.Attempts++
		a.LastError = errMsg
		a.LockedAt = nil
	})
}

func (s *InMemoryStore) RequeueStaleAlerts(staleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.alerts {
		a := &s.alerts[i]
		if a.Status == AlertStatusSending && a.LockedAt != nil && a.LockedAt.Before(staleBefore) {
			a.Status = AlertStatusQueued
			a.LockedAt = nil
			a.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Alerts returns a snapshot of every alert (for tests).
func (s *InMemoryStore) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

func (s *InMemoryStore) updateAlert(id string, fn func(*Alert)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			fn(&s.alerts[i])
			s.alerts[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrAlertNotFound
}
