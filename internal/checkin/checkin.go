// Package checkin runs the check-in pipeline: it stores a user's mood
// selections and reflections, analyzes their recent history, produces an
// assessment, persists it, and queues a crisis alert when one is warranted.
package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/BTreeMap/MoodLens/internal/emotion"
	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/BTreeMap/MoodLens/internal/store"
	"github.com/BTreeMap/MoodLens/internal/trend"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/BTreeMap/MoodLens/internal/checkin")

// HistoryLookback bounds how far back history is fetched for trend analysis.
const HistoryLookback = time.Duration(trend.LongTermDays) * 24 * time.Hour

// ErrUserNotFound is returned when a check-in references an unknown user.
var ErrUserNotFound = errors.New("user not found")

// Opts holds configuration for the Service.
type Opts struct {
	Clock        func() time.Time
	CrisisAlerts bool
}

// Option configures the Service.
type Option func(*Opts)

// WithClock overrides the wall clock used for timestamps and trend windows.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// WithCrisisAlerts enables or disables queuing crisis alerts. Enabled by default.
func WithCrisisAlerts(enabled bool) Option {
	return func(o *Opts) { o.CrisisAlerts = enabled }
}

// Result is the outcome of a submitted check-in.
type Result struct {
	AssessmentID string                            `json:"assessment_id"`
	Assessment   assessment.MentalHealthAssessment `json:"assessment"`
	Trend        *trend.Analysis                   `json:"trend,omitempty"`
	AlertID      string                            `json:"alert_id,omitempty"`
}

// Service coordinates storage and the assessment engine.
type Service struct {
	st           store.Store
	now          func() time.Time
	crisisAlerts bool
}

// NewService creates a Service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	cfg := Opts{Clock: time.Now, CrisisAlerts: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{st: st, now: cfg.Clock, crisisAlerts: cfg.CrisisAlerts}
}

// CreateUser assigns a new opaque identity and stores it.
func (s *Service) CreateUser(ctx context.Context) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	u := models.User{ID: "u_" + uuid.NewString(), CreatedAt: s.now().UTC()}
	if err := s.st.SaveUser(u); err != nil {
		slog.Error("Service.CreateUser: failed to save user", "error", err)
		return models.User{}, fmt.Errorf("save user: %w", err)
	}
	slog.Info("Service.CreateUser: user created", "userID", u.ID)
	return u, nil
}

// Submit records a check-in and returns the resulting assessment.
func (s *Service) Submit(ctx context.Context, userID string, req models.CheckInRequest) (Result, error) {
	ctx, span := tracer.Start(ctx, "checkin.Submit", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("checkin.moods", len(req.Moods)),
		attribute.Int("checkin.reflections", len(req.Reflections)),
	))
	defer span.End()

	res, err := s.submit(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("assessment.risk", string(res.Assessment.RiskLevel)),
		attribute.String("assessment.urgency", string(res.Assessment.UrgencyLevel)),
		attribute.Bool("alert.queued", res.AlertID != ""),
	)
	return res, nil
}

func (s *Service) submit(ctx context.Context, userID string, req models.CheckInRequest) (Result, error) {
	if len(req.Moods) == 0 {
		return Result{}, assessment.ErrNoMoodObservations
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if err := s.requireUser(userID); err != nil {
		return Result{}, err
	}

	// One timestamp per check-in; periods are written in sorted order so equal
	// timestamps come back in a stable order.
	now := s.now().UTC()
	for _, period := range slices.Sorted(maps.Keys(req.Moods)) {
		id := req.Moods[period]
		d := emotion.Resolve(id)
		entry := models.HistoricalEntry{
			ID:        "m_" + uuid.NewString(),
			UserID:    userID,
			Period:    period,
			EmotionID: id,
			MoodValue: float64(d.Value),
			MoodName:  d.Name,
			Timestamp: now,
		}
		if err := s.st.AddMoodEntry(entry); err != nil {
			slog.Error("Service.Submit: failed to store mood entry", "userID", userID, "period", period, "error", err)
			return Result{}, fmt.Errorf("store mood entry: %w", err)
		}
	}
	for _, period := range slices.Sorted(maps.Keys(req.Reflections)) {
		text := req.Reflections[period]
		if strings.TrimSpace(text) == "" {
			continue
		}
		r := models.Reflection{
			ID:               "r_" + uuid.NewString(),
			UserID:           userID,
			Period:           period,
			Text:             text,
			Keywords:         assessment.ExtractKeywords(text),
			CrisisIndicators: assessment.CrisisIndicators(text),
			Timestamp:        now,
		}
		if len(r.CrisisIndicators) > 0 {
			slog.Warn("Service.Submit: reflection carries crisis indicators", "userID", userID, "period", period, "indicators", len(r.CrisisIndicators))
		}
		if err := s.st.AddReflection(r); err != nil {
			slog.Error("Service.Submit: failed to store reflection", "userID", userID, "period", period, "error", err)
			return Result{}, fmt.Errorf("store reflection: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var tr *trend.Analysis
	history, err := s.st.ListMoodEntries(userID, now.Add(-HistoryLookback))
	if err != nil {
		slog.Warn("Service.Submit: history unavailable, assessing without trend", "userID", userID, "error", err)
		trace.SpanFromContext(ctx).AddEvent("history unavailable")
	} else {
		a := trend.Analyze(history, now)
		tr = &a
	}

	result, err := assessment.Assess(req.Moods, req.Reflections, tr)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return Result{}, fmt.Errorf("encode assessment: %w", err)
	}
	rec := models.AssessmentRecord{
		ID:         "a_" + uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		Assessment: doc,
	}
	if err := s.st.SaveAssessment(rec); err != nil {
		slog.Error("Service.Submit: failed to store assessment", "userID", userID, "error", err)
		return Result{}, fmt.Errorf("store assessment: %w", err)
	}

	out := Result{AssessmentID: rec.ID, Assessment: result, Trend: tr}
	if result.UrgencyLevel == assessment.UrgencyImmediate {
		out.AlertID = s.queueAlert(userID, rec)
	}

	slog.Info("Service.Submit: check-in recorded",
		"userID", userID,
		"assessmentID", rec.ID,
		"risk", result.RiskLevel,
		"urgency", result.UrgencyLevel,
		"alert", out.AlertID != "")
	return out, nil
}

// queueAlert enqueues a crisis alert. Failures are logged; the check-in still succeeds.
func (s *Service) queueAlert(userID string, rec models.AssessmentRecord) string {
	if !s.crisisAlerts {
		slog.Warn("Service.Submit: crisis detected but alerts are disabled", "userID", userID, "assessmentID", rec.ID)
		return ""
	}
	id, err := s.st.EnqueueAlert(userID, rec.ID, string(rec.Assessment))
	if err != nil {
		slog.Error("Service.Submit: failed to enqueue crisis alert", "userID", userID, "assessmentID", rec.ID, "error", err)
		return ""
	}
	slog.Warn("Service.Submit: crisis alert queued", "userID", userID, "alertID", id)
	return id
}

// Trend analyzes the user's history over the lookback window.
func (s *Service) Trend(ctx context.Context, userID string) (trend.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return trend.Analysis{}, err
	}
	if err := s.requireUser(userID); err != nil {
		return trend.Analysis{}, err
	}
	now := s.now().UTC()
	history, err := s.st.ListMoodEntries(userID, now.Add(-HistoryLookback))
	if err != nil {
		return trend.Analysis{}, fmt.Errorf("list mood entries: %w", err)
	}
	return trend.Analyze(history, now), nil
}

// History returns the user's stored assessments, newest first. limit <= 0 returns all.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.AssessmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, models.ErrInvalidLimit
	}
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	recs, err := s.st.ListAssessments(userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	if recs == nil {
		recs = []models.AssessmentRecord{}
	}
	return recs, nil
}

func (s *Service) requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return models.ErrMissingUserID
	}
	u, err := s.st.GetUser(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	return nil
}
