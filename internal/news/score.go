package news

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/upliftnews/uplift/internal/config"
)

var stripPolicy = bluemonday.StrictPolicy()

// Normalize flattens feed text for keyword matching: HTML removed, entities
// decoded, lowercased, whitespace collapsed to single spaces.
func Normalize(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Score evaluates one item against the filter rules. It is a pure function of
// its inputs: no clock, no state, so identical inputs always produce the
// identical verdict.
//
// Order matters. Exclude keywords are checked first and short-circuit: an
// excluded item scores exactly 0 and no boost is ever added on top. Otherwise
// the score is sourcePriority*3 plus the weight of every boost keyword found
// in the normalized title+description (plain substring match; overlapping
// keywords each count in full). The pass threshold is minUpliftScore plus the
// item's tone boost: sources flagged as mixed-tone must clear a higher bar,
// not a lower one.
func Score(item Item, filter config.Filter) ScoredItem {
	scored := ScoredItem{Item: item}

	text := Normalize(item.Title + " " + item.Description)

	for _, keyword := range filter.ExcludeKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			scored.Reason = fmt.Sprintf("excluded by keyword %q", keyword)
			return scored
		}
	}

	score := item.SourcePriority * 3
	for _, boost := range filter.BoostKeywords {
		keyword := strings.ToLower(strings.TrimSpace(boost.Keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			score += boost.Weight
		}
	}
	scored.Score = score

	threshold := filter.MinUpliftScore + item.ToneBoost
	if score >= threshold {
		scored.Passed = true
	} else {
		scored.Reason = fmt.Sprintf("score %d below threshold %d", score, threshold)
	}

	return scored
}

// ScoreAll scores every item in order.
func ScoreAll(items []Item, filter config.Filter) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, Score(item, filter))
	}
	return scored
}
