// Package trend analyzes a user's mood history over short, medium and long
// windows and derives an overall trend direction, risk level and
// recommendations.
//
// Analysis is a pure function of the supplied entries and the injected
// current time; nothing is cached between calls.
package trend

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/BTreeMap/MoodLens/internal/models"
)

// Direction is the overall direction of a user's mood history.
type Direction string

const (
	DirectionImproving  Direction = "improving"
	DirectionStable     Direction = "stable"
	DirectionDeclining  Direction = "declining"
	DirectionConcerning Direction = "concerning"
)

// RiskLevel is a coarse risk classification shared with the assessment engine.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Window lengths.
const (
	ShortTermDays  = 7
	MediumTermDays = 30
	LongTermDays   = 90
)

// Window labels.
const (
	ShortTermLabel  = "Last 7 days"
	MediumTermLabel = "Last 30 days"
	LongTermLabel   = "Last 90 days"
)

// Risk factor findings reported per window.
const (
	RiskFactorNegativeFrequency = "High frequency of negative emotions"
	RiskFactorDecliningMood     = "Declining mood trend"
	RiskFactorSevereDistress    = "Presence of severe emotional distress"
)

const (
	neutralBaseline  = 3.0
	neutralEmotion   = "neutral"
	declineThreshold = 0.5
)

// concerningEmotions are the emotion ids counted towards the negative frequency check.
var concerningEmotions = map[string]bool{
	"anxious":    true,
	"sad":        true,
	"angry":      true,
	"devastated": true,
}

// Window holds aggregate statistics for the entries inside one lookback window.
type Window struct {
	Label           string         `json:"label"`
	Days            int            `json:"days"`
	AverageMood     float64        `json:"average_mood"`
	DominantEmotion string         `json:"dominant_emotion"`
	EmotionCounts   map[string]int `json:"emotion_counts"`
	EntryCount      int            `json:"entry_count"`
	RiskFactors     []string       `json:"risk_factors"`
}

// Analysis is the result of analyzing a user's history.
type Analysis struct {
	ShortTerm       Window    `json:"short_term"`
	MediumTerm      Window    `json:"medium_term"`
	LongTerm        Window    `json:"long_term"`
	OverallTrend    Direction `json:"overall_trend"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
}

// Analyze partitions entries into 7, 30 and 90 day windows relative to now and
// classifies the result. Entries are expected newest first and already limited
// to the 90 day lookback; the long window uses the full slice as given.
func Analyze(entries []models.HistoricalEntry, now time.Time) Analysis {
	if len(entries) == 0 {
		slog.Debug("trend.Analyze: no entries, returning default analysis")
		return DefaultAnalysis()
	}

	short := summarize(ShortTermLabel, ShortTermDays, within(entries, now, ShortTermDays))
	medium := summarize(MediumTermLabel, MediumTermDays, within(entries, now, MediumTermDays))
	long := summarize(LongTermLabel, LongTermDays, entries)

	a := Analysis{
		ShortTerm:  short,
		MediumTerm: medium,
		LongTerm:   long,
	}
	a.OverallTrend = classifyTrend(short, medium, long)
	a.RiskLevel = classifyRisk(short, medium, long)
	a.Recommendations = recommend(a)

	slog.Debug("trend.Analyze: analysis complete",
		"entries", len(entries),
		"short_entries", short.EntryCount,
		"medium_entries", medium.EntryCount,
		"trend", a.OverallTrend,
		"risk", a.RiskLevel)
	return a
}

// DefaultAnalysis is returned for an empty history.
func DefaultAnalysis() Analysis {
	return Analysis{
		ShortTerm:       emptyWindow(ShortTermLabel, ShortTermDays),
		MediumTerm:      emptyWindow(MediumTermLabel, MediumTermDays),
		LongTerm:        emptyWindow(LongTermLabel, LongTermDays),
		OverallTrend:    DirectionStable,
		RiskLevel:       RiskLow,
		Recommendations: []string{"Start tracking your mood regularly to build meaningful insights"},
	}
}

// within returns the entries strictly newer than now minus days, preserving order.
func within(entries []models.HistoricalEntry, now time.Time, days int) []models.HistoricalEntry {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	var out []models.HistoricalEntry
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func emptyWindow(label string, days int) Window {
	return Window{
		Label:           label,
		Days:            days,
		AverageMood:     neutralBaseline,
		DominantEmotion: neutralEmotion,
		EmotionCounts:   map[string]int{},
		RiskFactors:     []string{},
	}
}

func summarize(label string, days int, entries []models.HistoricalEntry) Window {
	w := emptyWindow(label, days)
	if len(entries) == 0 {
		return w
	}

	w.EntryCount = len(entries)
	// Thresholds compare against the rounded value that is reported.
	w.AverageMood = round2(averageMood(entries))

	// Dominant emotion: highest count, ties go to the first seen.
	best := 0
	for _, e := range entries {
		w.EmotionCounts[e.MoodName]++
	}
	for _, e := range entries {
		if c := w.EmotionCounts[e.MoodName]; c > best {
			best = c
			w.DominantEmotion = e.MoodName
		}
	}

	w.RiskFactors = riskFactors(entries)
	return w
}

func averageMood(entries []models.HistoricalEntry) float64 {
	if len(entries) == 0 {
		return neutralBaseline
	}
	var sum float64
	for _, e := range entries {
		sum += e.MoodValue
	}
	return sum / float64(len(entries))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func riskFactors(entries []models.HistoricalEntry) []string {
	factors := []string{}

	negative := 0
	for _, e := range entries {
		if concerningEmotions[e.EmotionID] {
			negative++
		}
	}
	if float64(negative) > float64(len(entries))/2 {
		factors = append(factors, RiskFactorNegativeFrequency)
	}

	// Entries are newest first, so the leading half is the recent one.
	split := (len(entries) + 1) / 2
	recent, older := entries[:split], entries[split:]
	if len(recent) > 0 && len(older) > 0 && averageMood(recent) < averageMood(older)-declineThreshold {
		factors = append(factors, RiskFactorDecliningMood)
	}

	for _, e := range entries {
		if e.MoodValue == 1 || e.EmotionID == "devastated" {
			factors = append(factors, RiskFactorSevereDistress)
			break
		}
	}
	return factors
}

func classifyTrend(short, medium, long Window) Direction {
	switch {
	case short.AverageMood <= 2 || len(short.RiskFactors) >= 2:
		return DirectionConcerning
	case short.AverageMood > medium.AverageMood && medium.AverageMood >= long.AverageMood:
		return DirectionImproving
	case short.AverageMood < medium.AverageMood && medium.AverageMood <= long.AverageMood:
		return DirectionDeclining
	default:
		return DirectionStable
	}
}

func classifyRisk(short, medium, long Window) RiskLevel {
	total := len(short.RiskFactors) + len(medium.RiskFactors) + len(long.RiskFactors)
	switch {
	case short.AverageMood <= 1.5 || total >= 4:
		return RiskHigh
	case short.AverageMood <= 2.5 || total >= 2:
		return RiskModerate
	default:
		return RiskLow
	}
}

func recommend(a Analysis) []string {
	var recs []string
	if a.RiskLevel == RiskHigh || a.OverallTrend == DirectionConcerning {
		recs = append(recs,
			"Consider seeking immediate professional mental health support",
			"Contact a crisis helpline if experiencing thoughts of self-harm",
			"Reach out to trusted friends or family members")
	}
	if a.RiskLevel == RiskModerate || a.OverallTrend == DirectionDeclining {
		recs = append(recs,
			"Schedule an appointment with a mental health professional",
			"Practice daily mindfulness or meditation",
			"Maintain regular sleep and exercise routines")
	}
	// MoodName carries the display name, so compare without case.
	if strings.EqualFold(a.ShortTerm.DominantEmotion, "anxious") {
		recs = append(recs,
			"Try deep breathing exercises and progressive muscle relaxation",
			"Limit caffeine intake and practice grounding techniques")
	}
	if strings.EqualFold(a.ShortTerm.DominantEmotion, "sad") {
		recs = append(recs,
			"Engage in activities that bring you joy",
			"Consider light therapy and maintain social connections")
	}
	if a.OverallTrend == DirectionImproving {
		recs = append(recs,
			"Continue current positive coping strategies",
			"Maintain healthy lifestyle habits that support your progress")
	}
	if len(recs) == 0 {
		recs = append(recs,
			"Continue monitoring your emotional well-being",
			"Practice regular self-care activities",
			"Maintain healthy social connections")
	}
	return recs
}
