// Package leaderboard aggregates historical evaluation records into
// per-model performance and funniness standings.
package leaderboard

import (
	"sort"

	"llmarena/internal/domain"
)

// Entry is one model's aggregated standing.
type Entry struct {
	ModelID     string  `json:"modelId"`
	Evaluations int     `json:"evaluations"`
	Failures    int     `json:"failures"`
	AvgTPS      float64 `json:"avgTps"`
	AvgTTFT     float64 `json:"avgTtft"`
	AvgDuration float64 `json:"avgDuration"`
	FunnyCount  int     `json:"funnyCount"`
	RatedCount  int     `json:"ratedCount"`
	FunnyRatio  float64 `json:"funnyRatio"`
	TotalTokens int     `json:"totalTokens"`
}

// Build folds a conversation history into per-model entries, sorted by
// funny ratio then average throughput. Failed responses count toward
// Failures but are excluded from the timing averages.
func Build(conversations []domain.Conversation) []Entry {
	type acc struct {
		entry       Entry
		tpsSum      float64
		ttftSum     float64
		durationSum float64
		succeeded   int
	}

	byModel := make(map[string]*acc)

	for _, conv := range conversations {
		for modelID, resp := range conv.Responses {
			a, ok := byModel[modelID]
			if !ok {
				a = &acc{entry: Entry{ModelID: modelID}}
				byModel[modelID] = a
			}

			a.entry.Evaluations++
			if resp.Error != "" {
				a.entry.Failures++
				continue
			}

			a.succeeded++
			a.tpsSum += resp.TPS
			a.ttftSum += float64(resp.TTFT)
			a.durationSum += float64(resp.Duration)
			a.entry.TotalTokens += resp.TokenCount + resp.ThinkingTokenCount

			switch resp.Rating {
			case domain.RatingFunny:
				a.entry.FunnyCount++
				a.entry.RatedCount++
			case domain.RatingNotFunny:
				a.entry.RatedCount++
			}
		}
	}

	entries := make([]Entry, 0, len(byModel))
	for _, a := range byModel {
		if a.succeeded > 0 {
			a.entry.AvgTPS = a.tpsSum / float64(a.succeeded)
			a.entry.AvgTTFT = a.ttftSum / float64(a.succeeded)
			a.entry.AvgDuration = a.durationSum / float64(a.succeeded)
		}
		if a.entry.RatedCount > 0 {
			a.entry.FunnyRatio = float64(a.entry.FunnyCount) / float64(a.entry.RatedCount)
		}
		entries = append(entries, a.entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FunnyRatio != entries[j].FunnyRatio {
			return entries[i].FunnyRatio > entries[j].FunnyRatio
		}
		if entries[i].AvgTPS != entries[j].AvgTPS {
			return entries[i].AvgTPS > entries[j].AvgTPS
		}
		return entries[i].ModelID < entries[j].ModelID
	})

	return entries
}
