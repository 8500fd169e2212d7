package news

import (
	"sort"
	"time"
)

// SelectBest turns scored items into the publish shortlist: passing items
// only, ordered by score descending with newer publish dates breaking ties
// (items without a date sort as oldest), capped at maxPerSource items per
// source, at most count items total.
//
// The sort is stable and the ordering total, so repeated runs over the same
// input produce the same shortlist. Fewer than count results, or none at all,
// is a normal outcome that callers must expect.
func SelectBest(items []ScoredItem, count, maxPerSource int) []ScoredItem {
	passing := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if item.Passed {
			passing = append(passing, item)
		}
	}

	sort.SliceStable(passing, func(i, j int) bool {
		if passing[i].Score != passing[j].Score {
			return passing[i].Score > passing[j].Score
		}
		return publishedOrZero(passing[i]).After(publishedOrZero(passing[j]))
	})

	perSource := make(map[string]int)
	shortlist := make([]ScoredItem, 0, count)
	for _, item := range passing {
		if len(shortlist) >= count {
			break
		}
		if maxPerSource > 0 && perSource[item.SourceName] >= maxPerSource {
			// Skipped for this round only; the item stays eligible next run.
			continue
		}
		perSource[item.SourceName]++
		shortlist = append(shortlist, item)
	}

	return shortlist
}

func publishedOrZero(item ScoredItem) time.Time {
	if item.Published == nil {
		return time.Time{}
	}
	return *item.Published
}
