package emotion

import "testing"

func TestAll_ValueAndSeverityInRange(t *testing.T) {
	for _, d := range All() {
		if d.Value < MinValue || d.Value > MaxValue {
			t.Errorf("%s: value %d out of range", d.ID, d.Value)
		}
		if d.Severity < MinValue || d.Severity > MaxValue {
			t.Errorf("%s: severity %d out of range", d.ID, d.Severity)
		}
	}
}

func TestAll_CoversFullSpread(t *testing.T) {
	all := All()
	if len(all) != 12 {
		t.Fatalf("expected 12 emotions, got %d", len(all))
	}
	values := map[int]bool{}
	categories := map[Category]bool{}
	ids := map[string]bool{}
	for _, d := range all {
		if ids[d.ID] {
			t.Errorf("duplicate id %q", d.ID)
		}
		ids[d.ID] = true
		values[d.Value] = true
		categories[d.Category] = true
	}
	for v := MinValue; v <= MaxValue; v++ {
		if !values[v] {
			t.Errorf("no emotion with value %d", v)
		}
	}
	for _, c := range []Category{CategoryPositive, CategoryNeutral, CategoryNegative, CategoryConcerning} {
		if !categories[c] {
			t.Errorf("no emotion in category %q", c)
		}
	}
}

func TestAll_OrderedMostPositiveFirst(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		if all[i].Value > all[i-1].Value {
			t.Errorf("%s (value %d) listed after %s (value %d)", all[i].ID, all[i].Value, all[i-1].ID, all[i-1].Value)
		}
	}
}

func TestLookup_Known(t *testing.T) {
	tests := []struct {
		id       string
		value    int
		severity int
		category Category
	}{
		{"ecstatic", 5, 1, CategoryPositive},
		{"joyful", 5, 1, CategoryPositive},
		{"content", 4, 1, CategoryPositive},
		{"calm", 4, 1, CategoryPositive},
		{"neutral", 3, 2, CategoryNeutral},
		{"confused", 2, 3, CategoryNegative},
		{"tired", 2, 3, CategoryNegative},
		{"worried", 2, 3, CategoryNegative},
		{"anxious", 1, 4, CategoryConcerning},
		{"sad", 1, 4, CategoryConcerning},
		{"angry", 1, 4, CategoryConcerning},
		{"devastated", 1, 5, CategoryConcerning},
	}
	for i, tt := range tests {
		d, ok := Lookup(tt.id)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.id)
			continue
		}
		if d.Value != tt.value || d.Severity != tt.severity || d.Category != tt.category {
			t.Errorf("Lookup(%q) = value %d severity %d category %q, want %d %d %q",
				tt.id, d.Value, d.Severity, d.Category, tt.value, tt.severity, tt.category)
		}
		if all := All(); all[i].ID != tt.id {
			t.Errorf("All()[%d] = %q, want %q", i, all[i].ID, tt.id)
		}
	}
}

func TestResolve_UnknownUsesDefault(t *testing.T) {
	for _, id := range []string{"", "bewildered", "JOYFUL", "joyful "} {
		if _, ok := Lookup(id); ok {
			t.Errorf("Lookup(%q) unexpectedly found", id)
		}
		d := Resolve(id)
		if d.Value != DefaultValue || d.Severity != DefaultSeverity || d.Category != CategoryNeutral {
			t.Errorf("Resolve(%q) = %+v, want neutral default", id, d)
		}
		if len(d.Keywords) != 0 {
			t.Errorf("Resolve(%q) keywords = %v, want empty", id, d.Keywords)
		}
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0].Value = 1
	first[0].Keywords[0] = "mutated"

	again, _ := Lookup(first[0].ID)
	if again.Value == 1 {
		t.Error("mutating All() result changed the taxonomy value")
	}
	if again.Keywords[0] == "mutated" {
		t.Error("mutating All() result changed the taxonomy keywords")
	}
}

func TestIsKnown(t *testing.T) {
	if !IsKnown("sad") {
		t.Error("expected sad to be known")
	}
	if IsKnown("hopeful") {
		t.Error("expected hopeful to be unknown")
	}
	if IsKnown("melancholic") {
		t.Error("expected melancholic to be unknown")
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want int
	}{
		{"empty", nil, DefaultSeverity},
		{"single positive", []string{"joyful"}, 1},
		{"mixed rounds half up", []string{"calm", "neutral"}, 2},
		{"concerning", []string{"sad", "devastated"}, 5},
		{"unknown uses default", []string{"bewildered", "neutral"}, 3},
		{"spread", []string{"joyful", "tired", "anxious"}, 3},
		{"all severe", []string{"anxious", "sad", "angry", "devastated"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Severity(tt.ids); got != tt.want {
				t.Errorf("Severity(%v) = %d, want %d", tt.ids, got, tt.want)
			}
		})
	}
}
