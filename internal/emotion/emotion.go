// Package emotion provides the fixed emotion taxonomy used by MoodLens.
//
// Every emotion identifier a user can select resolves to a Descriptor carrying
// its mood value, category, clinical severity and descriptive keywords.
// Unknown identifiers resolve to a neutral default so that an unrecognised
// selection never aborts an assessment.
package emotion

import "math"

// Category classifies an emotion by affect.
type Category string

const (
	CategoryPositive   Category = "positive"
	CategoryNeutral    Category = "neutral"
	CategoryNegative   Category = "negative"
	CategoryConcerning Category = "concerning"
)

// Value and severity bounds.
const (
	MinValue = 1
	MaxValue = 5

	// DefaultValue and DefaultSeverity apply to identifiers missing from the table.
	DefaultValue    = 3
	DefaultSeverity = 3
)

// Descriptor holds the semantic attributes of a single emotion.
type Descriptor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Value    int      `json:"value"`    // 1-5, higher is more positive affect
	Severity int      `json:"severity"` // 1-5, higher is more clinically concerning
	Keywords []string `json:"keywords"`
}

// ---- Taxonomy ----

// taxonomy is ordered from most positive to most negative.
var taxonomy = []Descriptor{
	{ID: "ecstatic", Name: "Ecstatic", Category: CategoryPositive, Value: 5, Severity: 1,
		Keywords: []string{"extremely happy", "overjoyed", "euphoric", "elated"}},
	{ID: "joyful", Name: "Joyful", Category: CategoryPositive, Value: 5, Severity: 1,
		Keywords: []string{"happy", "cheerful", "delighted", "pleased"}},
	{ID: "content", Name: "Content", Category: CategoryPositive, Value: 4, Severity: 1,
		Keywords: []string{"satisfied", "peaceful", "fulfilled", "serene"}},
	{ID: "calm", Name: "Calm", Category: CategoryPositive, Value: 4, Severity: 1,
		Keywords: []string{"relaxed", "tranquil", "composed", "centered"}},
	{ID: "neutral", Name: "Neutral", Category: CategoryNeutral, Value: 3, Severity: 2,
		Keywords: []string{"okay", "fine", "average", "indifferent"}},
	{ID: "confused", Name: "Confused", Category: CategoryNegative, Value: 2, Severity: 3,
		Keywords: []string{"uncertain", "puzzled", "bewildered", "lost"}},
	{ID: "tired", Name: "Tired", Category: CategoryNegative, Value: 2, Severity: 3,
		Keywords: []string{"exhausted", "drained", "fatigued", "weary"}},
	{ID: "worried", Name: "Worried", Category: CategoryNegative, Value: 2, Severity: 3,
		Keywords: []string{"concerned", "troubled", "uneasy", "apprehensive"}},
	{ID: "anxious", Name: "Anxious", Category: CategoryConcerning, Value: 1, Severity: 4,
		Keywords: []string{"nervous", "stressed", "panicked", "restless"}},
	{ID: "sad", Name: "Sad", Category: CategoryConcerning, Value: 1, Severity: 4,
		Keywords: []string{"depressed", "melancholic", "down", "blue"}},
	{ID: "angry", Name: "Angry", Category: CategoryConcerning, Value: 1, Severity: 4,
		Keywords: []string{"furious", "irritated", "frustrated", "enraged"}},
	{ID: "devastated", Name: "Devastated", Category: CategoryConcerning, Value: 1, Severity: 5,
		Keywords: []string{"heartbroken", "shattered", "crushed", "hopeless"}},
}

// byID indexes taxonomy; built once at package initialisation and never mutated.
var byID = func() map[string]int {
	m := make(map[string]int, len(taxonomy))
	for i, d := range taxonomy {
		m[d.ID] = i
	}
	return m
}()

// ---- Public API ----

// Lookup returns the descriptor for id and whether it is part of the taxonomy.
func Lookup(id string) (Descriptor, bool) {
	i, ok := byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return clone(taxonomy[i]), true
}

// Resolve is the total form of Lookup: unknown ids resolve to Default(id).
func Resolve(id string) Descriptor {
	if d, ok := Lookup(id); ok {
		return d
	}
	return Default(id)
}

// Default returns the neutral descriptor applied to unrecognised ids.
func Default(id string) Descriptor {
	return Descriptor{
		ID:       id,
		Name:     id,
		Category: CategoryNeutral,
		Value:    DefaultValue,
		Severity: DefaultSeverity,
		Keywords: []string{},
	}
}

// IsKnown reports whether id is part of the taxonomy.
func IsKnown(id string) bool {
	_, ok := byID[id]
	return ok
}

// All returns every descriptor, most positive first.
func All() []Descriptor {
	out := make([]Descriptor, len(taxonomy))
	for i, d := range taxonomy {
		out[i] = clone(d)
	}
	return out
}

// Severity returns the rounded mean severity of the given ids, resolving
// unknown ids to DefaultSeverity. An empty slice yields DefaultSeverity.
func Severity(ids []string) int {
	if len(ids) == 0 {
		return DefaultSeverity
	}
	sum := 0
	for _, id := range ids {
		sum += Resolve(id).Severity
	}
	return int(math.Round(float64(sum) / float64(len(ids))))
}

func clone(d Descriptor) Descriptor {
	d.Keywords = append([]string(nil), d.Keywords...)
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	return d
}
