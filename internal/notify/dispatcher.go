package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/BTreeMap/MoodLens/internal/store"
)

// DefaultMaxAttempts bounds delivery retries before an alert is abandoned.
const DefaultMaxAttempts = 5

// Dispatcher periodically claims queued crisis alerts and delivers them.
type Dispatcher struct {
	repo           store.AlertRepo
	notifier       Notifier
	pollInterval   time.Duration
	staleThreshold time.Duration
	claimLimit     int
	maxAttempts    int
	now            func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(repo store.AlertRepo, notifier Notifier, pollInterval time.Duration) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Dispatcher{
		repo:           repo,
		notifier:       notifier,
		pollInterval:   pollInterval,
		staleThreshold: 5 * time.Minute,
		claimLimit:     10,
		maxAttempts:    DefaultMaxAttempts,
		now:            time.Now,
	}
}

// RecoverStaleAlerts requeues alerts stuck in sending state (crash recovery).
// Should be called once at startup.
func (d *Dispatcher) RecoverStaleAlerts() error {
	n, err := d.repo.RequeueStaleAlerts(d.now().Add(-d.staleThreshold))
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Dispatcher.RecoverStaleAlerts: requeued stale alerts", "count", n)
	}
	return nil
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("Dispatcher.Run: starting crisis alert dispatcher", "pollInterval", d.pollInterval)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher.Run: stopping")
			return
		case <-ticker.C:
			d.Poll(ctx)
		}
	}
}

// Poll claims and delivers every due alert once. It returns the number delivered.
func (d *Dispatcher) Poll(ctx context.Context) int {
	now := d.now()
	alerts, err := d.repo.ClaimDueAlerts(now, d.claimLimit)
	if err != nil {
		slog.Error("Dispatcher.Poll: claim failed", "error", err)
		return 0
	}

	delivered := 0
	for _, alert := range alerts {
		if err := d.deliver(ctx, alert); err != nil {
			d.handleFailure(now, alert, err)
			continue
		}
		if err := d.repo.MarkAlertSent(alert.ID); err != nil {
			slog.Error("Dispatcher.Poll: mark sent error", "id", alert.ID, "error", err)
			continue
		}
		delivered++
		slog.Info("Dispatcher.Poll: crisis alert delivered", "id", alert.ID, "userID", alert.UserID)
	}
	return delivered
}

func (d *Dispatcher) deliver(ctx context.Context, alert store.Alert) error {
	var a assessment.MentalHealthAssessment
	if err := json.Unmarshal([]byte(alert.PayloadJSON), &a); err != nil {
		return fmt.Errorf("decode alert payload: %w", err)
	}
	slog.Debug("Dispatcher.deliver: sending alert", "id", alert.ID, "userID", alert.UserID, "attempt", alert.Attempts+1)
	return d.notifier.SendCrisisAlert(ctx, alert.UserID, a)
}

func (d *Dispatcher) handleFailure(now time.Time, alert store.Alert, cause error) {
	slog.Error("Dispatcher.Poll: delivery failed", "id", alert.ID, "attempt", alert.Attempts+1, "error", cause)
	if alert.Attempts+1 >= d.maxAttempts {
		if err := d.repo.AbandonAlert(alert.ID, cause.Error()); err != nil {
			slog.Error("Dispatcher.Poll: abandon alert error", "id", alert.ID, "error", err)
		}
		slog.Warn("Dispatcher.Poll: crisis alert abandoned", "id", alert.ID, "userID", alert.UserID)
		return
	}
	// Exponential backoff: 10s, 20s, 40s, ...
	backoff := time.Duration(10*(1<<alert.Attempts)) * time.Second
	if err := d.repo.FailAlert(alert.ID, cause.Error(), now.Add(backoff)); err != nil {
		slog.Error("Dispatcher.Poll: fail alert error", "id", alert.ID, "error", err)
	}
}
