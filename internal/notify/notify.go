// Package notify delivers crisis alerts for high-urgency assessments to a
// configured care contact.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier sends a crisis alert about a user's assessment.
type Notifier interface {
	SendCrisisAlert(ctx context.Context, userID string, a assessment.MentalHealthAssessment) error
}

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	AlertTo    string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number in E.164 format.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// WithAlertTo sets the care-contact phone number that receives alerts.
func WithAlertTo(to string) Option {
	return func(o *Opts) { o.AlertTo = to }
}

// messageCreator is the subset of the Twilio REST API used for sending SMS.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends crisis alerts as SMS through the Twilio REST API.
type TwilioNotifier struct {
	api     messageCreator
	from    string
	alertTo string
}

// NewTwilioNotifier builds a TwilioNotifier, falling back to TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and CRISIS_ALERT_TO for unset options.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.AlertTo == "" {
		cfg.AlertTo = os.Getenv("CRISIS_ALERT_TO")
	}
	slog.Debug("Twilio notifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "",
		"AlertTo_set", cfg.AlertTo != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}
	if cfg.AlertTo == "" {
		return nil, fmt.Errorf("crisis alert recipient must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{api: client.Api, from: cfg.FromNumber, alertTo: cfg.AlertTo}, nil
}

// SendCrisisAlert sends one SMS to the care contact. Reflection text is never included.
func (n *TwilioNotifier) SendCrisisAlert(ctx context.Context, userID string, a assessment.MentalHealthAssessment) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.alertTo)
	params.SetFrom(n.from)
	params.SetBody(AlertBody(userID, a))

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		slog.Error("TwilioNotifier.SendCrisisAlert failed", "userID", userID, "error", err)
		return fmt.Errorf("failed to send crisis alert for %s: %w", userID, err)
	}
	if resp != nil && resp.Sid != nil {
		slog.Debug("TwilioNotifier.SendCrisisAlert sent", "userID", userID, "sid", *resp.Sid)
	}
	return nil
}

// AlertBody renders the alert text.
func AlertBody(userID string, a assessment.MentalHealthAssessment) string {
	return fmt.Sprintf("MoodLens crisis alert: user %s assessed at %s risk (urgency %s, score %.2f, severity %d/5). Please reach out as soon as possible.",
		userID, a.RiskLevel, a.UrgencyLevel, a.OverallScore, a.EmotionalSeverity)
}

// SentAlert is an alert captured by MockNotifier.
type SentAlert struct {
	UserID     string
	Assessment assessment.MentalHealthAssessment
}

// MockNotifier records alerts in memory. Err, when set, is returned from every send.
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentAlert
	Err  error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendCrisisAlert(ctx context.Context, userID string, a assessment.MentalHealthAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentAlert{UserID: userID, Assessment: a})
	return nil
}

// Sent returns a copy of the recorded alerts.
func (m *MockNotifier) Sent() []SentAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentAlert(nil), m.sent...)
}
