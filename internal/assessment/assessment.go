// Package assessment combines current mood selections, free-text reflections
// and an optional trend analysis into a single mental-wellness assessment.
//
// Assess is a pure function: it performs no I/O, keeps no state and returns
// identical output for identical input.
package assessment

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/BTreeMap/MoodLens/internal/emotion"
	"github.com/BTreeMap/MoodLens/internal/trend"
)

// ErrNoMoodObservations is returned when Assess is called without any current mood.
var ErrNoMoodObservations = errors.New("invalid input: no mood observations")

// RiskLevel shares its values with the trend analyzer.
type RiskLevel = trend.RiskLevel

// UrgencyLevel expresses how soon the user should seek help.
type UrgencyLevel string

const (
	UrgencyNone      UrgencyLevel = "none"
	UrgencyLow       UrgencyLevel = "low"
	UrgencyMedium    UrgencyLevel = "medium"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyImmediate UrgencyLevel = "immediate"
)

// Concern findings.
const (
	ConcernAnxiety      = "Anxiety and worry patterns"
	ConcernDepressive   = "Depressive symptoms"
	ConcernAnger        = "Anger management challenges"
	ConcernFatigue      = "Fatigue and low energy"
	ConcernSleep        = "Sleep disturbances"
	ConcernWork         = "Work-related stress"
	ConcernRelationship = "Relationship difficulties"
	ConcernDeclining    = "Declining emotional well-being trend"
	ConcernInstability  = "Recent emotional instability"
	ConcernDefault      = "General emotional wellness monitoring"
)

// Strength findings.
const (
	StrengthJoy           = "Capacity for joy and happiness"
	StrengthPeace         = "Ability to find peace and contentment"
	StrengthGratitude     = "Gratitude and appreciation"
	StrengthSocialSupport = "Strong support network"
	StrengthCoping        = "Healthy coping strategies"
	StrengthImproving     = "Positive emotional growth trajectory"
	StrengthStability     = "Stable emotional regulation"
	StrengthDefault       = "Willingness to self-reflect and seek understanding"
)

var (
	highRiskRecommendations = []string{
		"Seek immediate professional mental health support",
		"Consider contacting a crisis helpline for immediate assistance",
		"Reach out to trusted friends, family, or support network",
		"Avoid making major life decisions while in distress",
	}
	moderateRiskRecommendations = []string{
		"Schedule an appointment with a mental health professional",
		"Consider therapy or counseling to develop coping strategies",
		"Practice daily stress management techniques",
	}
	anxietyRecommendations = []string{
		"Practice deep breathing exercises and mindfulness meditation",
		"Limit caffeine intake and try progressive muscle relaxation",
	}
	depressiveRecommendations = []string{
		"Maintain regular sleep schedule and engage in physical activity",
		"Connect with supportive friends and family members",
	}
	sleepRecommendations = []string{
		"Establish a consistent bedtime routine and sleep hygiene",
		"Limit screen time before bed and create a calm sleep environment",
	}
	lowRiskRecommendations = []string{
		"Continue current positive mental health practices",
		"Maintain regular self-care routines and social connections",
		"Consider keeping a mood journal for ongoing self-awareness",
	}
)

// MentalHealthAssessment is the final output of the engine.
type MentalHealthAssessment struct {
	OverallScore             float64           `json:"overall_score"`
	EmotionalSeverity        int               `json:"emotional_severity"`
	RiskLevel                RiskLevel         `json:"risk_level"`
	UrgencyLevel             UrgencyLevel      `json:"urgency_level"`
	Concerns                 []string          `json:"concerns"`
	Strengths                []string          `json:"strengths"`
	Recommendations          []string          `json:"recommendations"`
	RequiresProfessionalHelp bool              `json:"requires_professional_help"`
	SupportResources         []SupportResource `json:"support_resources"`
}

// Assess builds an assessment from current moods (period -> emotion id),
// reflections (period -> text) and an optional trend analysis. tr may be nil
// when no history is available. moods must not be empty.
func Assess(moods, reflections map[string]string, tr *trend.Analysis) (MentalHealthAssessment, error) {
	if len(moods) == 0 {
		return MentalHealthAssessment{}, ErrNoMoodObservations
	}

	// Sorted periods keep output independent of map iteration order.
	periods := sortedKeys(moods)
	ids := make([]string, 0, len(periods))
	var sum float64
	for _, p := range periods {
		id := moods[p]
		ids = append(ids, id)
		sum += float64(emotion.Resolve(id).Value)
	}
	score := round2(sum / float64(len(ids)))

	text := joinReflections(reflections)
	crisis := DetectCrisis(text)

	risk, urgency := classify(score, crisis, tr)
	concerns := identifyConcerns(ids, text, tr)
	strengths := identifyStrengths(ids, text, tr)

	a := MentalHealthAssessment{
		OverallScore:             score,
		EmotionalSeverity:        emotion.Severity(ids),
		RiskLevel:                risk,
		UrgencyLevel:             urgency,
		Concerns:                 concerns,
		Strengths:                strengths,
		Recommendations:          recommend(risk, concerns),
		RequiresProfessionalHelp: requiresProfessionalHelp(risk, urgency, tr),
		SupportResources:         selectResources(risk, urgency, concerns),
	}

	slog.Debug("assessment.Assess: assessment complete",
		"moods", len(ids),
		"score", a.OverallScore,
		"severity", a.EmotionalSeverity,
		"risk", a.RiskLevel,
		"urgency", a.UrgencyLevel,
		"crisis", crisis,
		"trend_present", tr != nil)
	return a, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// joinReflections concatenates the non-blank reflections in period order
// and returns the normalized result.
func joinReflections(reflections map[string]string) string {
	var parts []string
	for _, p := range sortedKeys(reflections) {
		if t := strings.TrimSpace(reflections[p]); t != "" {
			parts = append(parts, t)
		}
	}
	return normalize(strings.Join(parts, " "))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func classify(score float64, crisis bool, tr *trend.Analysis) (RiskLevel, UrgencyLevel) {
	switch {
	case crisis || score <= 1.5:
		return trend.RiskHigh, UrgencyImmediate
	case score <= 2.5 || (tr != nil && tr.RiskLevel == trend.RiskHigh):
		return trend.RiskModerate, UrgencyMedium
	case score <= 3.5 || (tr != nil && tr.RiskLevel == trend.RiskModerate):
		return trend.RiskModerate, UrgencyLow
	default:
		return trend.RiskLow, UrgencyNone
	}
}

func identifyConcerns(ids []string, text string, tr *trend.Analysis) []string {
	var concerns []string
	if slices.Contains(ids, "anxious") {
		concerns = append(concerns, ConcernAnxiety)
	}
	if slices.Contains(ids, "sad") || slices.Contains(ids, "devastated") {
		concerns = append(concerns, ConcernDepressive)
	}
	if slices.Contains(ids, "angry") {
		concerns = append(concerns, ConcernAnger)
	}
	if slices.Contains(ids, "tired") {
		concerns = append(concerns, ConcernFatigue)
	}
	concerns = append(concerns, matchRules(text, concernRules)...)
	if tr != nil {
		if tr.OverallTrend == trend.DirectionDeclining {
			concerns = append(concerns, ConcernDeclining)
		}
		if len(tr.ShortTerm.RiskFactors) > 0 {
			concerns = append(concerns, ConcernInstability)
		}
	}
	if len(concerns) == 0 {
		concerns = []string{ConcernDefault}
	}
	return concerns
}

func identifyStrengths(ids []string, text string, tr *trend.Analysis) []string {
	var strengths []string
	if slices.Contains(ids, "joyful") || slices.Contains(ids, "ecstatic") {
		strengths = append(strengths, StrengthJoy)
	}
	if slices.Contains(ids, "content") || slices.Contains(ids, "calm") {
		strengths = append(strengths, StrengthPeace)
	}
	strengths = append(strengths, matchRules(text, strengthRules)...)
	if tr != nil {
		if tr.OverallTrend == trend.DirectionImproving {
			strengths = append(strengths, StrengthImproving)
		}
		if tr.RiskLevel == trend.RiskLow {
			strengths = append(strengths, StrengthStability)
		}
	}
	if len(strengths) == 0 {
		strengths = []string{StrengthDefault}
	}
	return strengths
}

func recommend(risk RiskLevel, concerns []string) []string {
	var recs []string
	switch risk {
	case trend.RiskHigh:
		recs = append(recs, highRiskRecommendations...)
	case trend.RiskModerate:
		recs = append(recs, moderateRiskRecommendations...)
	}
	if slices.Contains(concerns, ConcernAnxiety) {
		recs = append(recs, anxietyRecommendations...)
	}
	if slices.Contains(concerns, ConcernDepressive) {
		recs = append(recs, depressiveRecommendations...)
	}
	if slices.Contains(concerns, ConcernSleep) {
		recs = append(recs, sleepRecommendations...)
	}
	if risk == trend.RiskLow {
		recs = append(recs, lowRiskRecommendations...)
	}
	return recs
}

func requiresProfessionalHelp(risk RiskLevel, urgency UrgencyLevel, tr *trend.Analysis) bool {
	return risk == trend.RiskHigh ||
		urgency == UrgencyImmediate || urgency == UrgencyHigh ||
		(tr != nil && tr.OverallTrend == trend.DirectionConcerning)
}

// selectResources applies each selection rule independently. Matches are not
// de-duplicated; the resource types are disjoint so no entry repeats.
func selectResources(risk RiskLevel, urgency UrgencyLevel, concerns []string) []SupportResource {
	var out []SupportResource
	if risk == trend.RiskHigh || urgency == UrgencyImmediate {
		out = append(out, resourcesOfType(ResourceCrisis)...)
	}
	if risk == trend.RiskModerate || risk == trend.RiskHigh {
		out = append(out, resourcesOfType(ResourceTherapy)...)
	}
	if slices.ContainsFunc(concerns, mentionsSupportNeed) {
		out = append(out, resourcesOfType(ResourceSupportGroup)...)
	}
	return append(out, resourcesOfType(ResourceSelfHelp)...)
}

func mentionsSupportNeed(concern string) bool {
	c := strings.ToLower(concern)
	return strings.Contains(c, "relationship") || strings.Contains(c, "support")
}
