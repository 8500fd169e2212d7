package news

import (
	"reflect"
	"testing"

	"github.com/upliftnews/uplift/internal/config"
)

func testFilter() config.Filter {
	return config.Filter{
		MinUpliftScore:  20,
		MaxPerSource:    1,
		ExcludeKeywords: []string{"disaster", "tragedy"},
		BoostKeywords: []config.KeywordBoost{
			{Keyword: "volunteers", Weight: 15},
			{Keyword: "community", Weight: 10},
		},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Local Volunteers Rebuild Park", "local volunteers rebuild park"},
		{"html tags", "<p>Good <b>News</b></p>", "good news"},
		{"entities", "Caf&eacute; reopens &amp; thrives", "café reopens & thrives"},
		{"whitespace", "  spaced \n\t out  ", "spaced out"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScore_Pure(t *testing.T) {
	item := Item{
		Title:          "Volunteers rebuild the community park",
		Description:    "Hundreds joined in.",
		SourcePriority: 5,
	}
	filter := testFilter()

	first := Score(item, filter)
	second := Score(item, filter)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Score is not deterministic: %+v vs %+v", first, second)
	}
}

func TestScore_ExcludeShortCircuits(t *testing.T) {
	// Boost keywords present, but the exclude must win and zero the score.
	item := Item{
		Title:          "Disaster strikes as volunteers flee",
		Description:    "community in shock",
		SourcePriority: 10,
	}

	scored := Score(item, testFilter())
	if scored.Score != 0 {
		t.Errorf("Score = %d, want 0 for excluded item", scored.Score)
	}
	if scored.Passed {
		t.Error("excluded item must not pass")
	}
	if scored.Reason != `excluded by keyword "disaster"` {
		t.Errorf("Reason = %q", scored.Reason)
	}
}

func TestScore_ExcludeIsCaseInsensitiveSubstring(t *testing.T) {
	item := Item{Title: "TRAGEDY in the hills", SourcePriority: 8}
	if scored := Score(item, testFilter()); scored.Score != 0 || scored.Passed {
		t.Errorf("Score = %+v, want exclusion", scored)
	}
}

func TestScore_Formula(t *testing.T) {
	filter := testFilter()

	tests := []struct {
		name      string
		item      Item
		wantScore int
		wantPass  bool
	}{
		{
			name:      "base only",
			item:      Item{Title: "Quiet day in town", SourcePriority: 7},
			wantScore: 21,
			wantPass:  true,
		},
		{
			name:      "base plus one boost",
			item:      Item{Title: "Volunteers open shelter", SourcePriority: 2},
			wantScore: 2*3 + 15,
			wantPass:  true,
		},
		{
			name:      "both boosts stack",
			item:      Item{Title: "Volunteers grow community garden", SourcePriority: 1},
			wantScore: 1*3 + 15 + 10,
			wantPass:  true,
		},
		{
			name:      "below threshold",
			item:      Item{Title: "Nothing notable", SourcePriority: 2},
			wantScore: 6,
			wantPass:  false,
		},
		{
			name:      "boost keyword in description",
			item:      Item{Title: "Town news", Description: "the community came together", SourcePriority: 4},
			wantScore: 4*3 + 10,
			wantPass:  true,
		},
		{
			name:      "empty text degrades to base",
			item:      Item{SourcePriority: 7},
			wantScore: 21,
			wantPass:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := Score(tt.item, filter)
			if scored.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", scored.Score, tt.wantScore)
			}
			if scored.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v (reason %q)", scored.Passed, tt.wantPass, scored.Reason)
			}
		})
	}
}

func TestScore_ToneBoostRaisesBar(t *testing.T) {
	filter := testFilter()

	// Score 21 passes the plain threshold of 20...
	neutral := Item{Title: "Steady progress", SourcePriority: 7}
	if scored := Score(neutral, filter); !scored.Passed {
		t.Fatalf("neutral source should pass: %+v", scored)
	}

	// ...but not the raised bar of a mixed-tone source.
	mixed := neutral
	mixed.ToneBoost = 5
	scored := Score(mixed, filter)
	if scored.Passed {
		t.Errorf("tone-boosted source passed with score %d against threshold 25", scored.Score)
	}
	if scored.Reason != "score 21 below threshold 25" {
		t.Errorf("Reason = %q", scored.Reason)
	}
}

func TestScore_BoostInsideHTMLMarkup(t *testing.T) {
	// Keywords must match against stripped text, not raw markup.
	item := Item{
		Title:          "Good morning",
		Description:    `<a href="https://example.com/community">volunteers</a> needed`,
		SourcePriority: 2,
	}

	scored := Score(item, testFilter())
	// "community" appears only inside the href attribute, which is stripped;
	// "volunteers" is visible text and counts.
	if want := 2*3 + 15; scored.Score != want {
		t.Errorf("Score = %d, want %d", scored.Score, want)
	}
}
