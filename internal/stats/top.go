package stats

import (
	"sort"

	"github.com/verte-zerg/entrystudy/internal/model"
)

// WordCount pairs a word with how often it was chosen.
type WordCount struct {
	Word  string
	Count int
}

// TopSelections returns the n most frequently accepted suggestions.
func TopSelections(events []model.Event, n int) []WordCount {
	if n <= 0 || len(events) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, e := range events {
		if p, ok := e.(model.Prediction); ok {
			counts[p.Selected]++
		}
	}
	items := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		items = append(items, WordCount{Word: w, Count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Word < items[j].Word
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
