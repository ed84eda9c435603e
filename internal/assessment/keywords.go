package assessment

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// crisisKeywords trigger an immediate-urgency assessment when found in any reflection.
var crisisKeywords = []string{
	"hopeless",
	"worthless",
	"suicide",
	"self-harm",
	"end it all",
	"no point",
	"better off dead",
	"can't go on",
}

// indicatorKeywords extend crisisKeywords with phrases recorded on a stored
// reflection. They flag a reflection for review without changing urgency.
var indicatorKeywords = []string{
	"kill myself",
	"hurt myself",
}

const (
	// maxReflectionKeywords caps the keywords kept per stored reflection.
	maxReflectionKeywords = 10
	// minKeywordLength excludes short filler words.
	minKeywordLength = 4
)

// keywordRule maps a group of keywords to the finding it produces.
type keywordRule struct {
	keywords []string
	finding  string
}

var concernRules = []keywordRule{
	{[]string{"sleep", "insomnia"}, ConcernSleep},
	{[]string{"work", "job", "stress"}, ConcernWork},
	{[]string{"relationship", "family"}, ConcernRelationship},
}

var strengthRules = []keywordRule{
	{[]string{"grateful", "thankful"}, StrengthGratitude},
	{[]string{"support", "friend", "family"}, StrengthSocialSupport},
	{[]string{"exercise", "meditation", "hobby"}, StrengthCoping},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// normalize case-folds text and straightens typographic apostrophes.
// A new Caser is created per call because Casers are not safe for concurrent use.
func normalize(text string) string {
	return cases.Fold().String(apostrophes.Replace(text))
}

// containsAny reports whether normalized text contains any keyword.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, normalize(kw)) {
			return true
		}
	}
	return false
}

// DetectCrisis reports whether text contains any crisis keyword, ignoring case.
func DetectCrisis(text string) bool {
	return containsAny(normalize(text), crisisKeywords)
}

// CrisisIndicators returns the crisis phrases found in text, in list order.
// It never returns nil.
func CrisisIndicators(text string) []string {
	norm := normalize(text)
	out := []string{}
	for _, kw := range slices.Concat(crisisKeywords, indicatorKeywords) {
		if strings.Contains(norm, normalize(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

// ExtractKeywords returns up to ten case-folded words of four or more letters
// or digits, in the order they appear. Repeats are kept.
func ExtractKeywords(text string) []string {
	words := strings.FieldsFunc(normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := []string{}
	for _, w := range words {
		if utf8.RuneCountInString(w) < minKeywordLength {
			continue
		}
		out = append(out, w)
		if len(out) == maxReflectionKeywords {
			break
		}
	}
	return out
}

func matchRules(text string, rules []keywordRule) []string {
	var out []string
	for _, r := range rules {
		if containsAny(text, r.keywords) {
			out = append(out, r.finding)
		}
	}
	return out
}
