package memory

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

// Tokenize splits text into a lowercased word set. Runs of letters and
// digits form a word, so punctuation and quotes never stick to tokens.
func Tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		words[w] = struct{}{}
	}
	return words
}

// BaseRelevance is the fraction of query words found in the candidate text.
// An empty query yields 0 (no matches rather than an error).
func BaseRelevance(queryWords map[string]struct{}, candidate string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	candidateWords := Tokenize(candidate)
	overlap := 0
	for w := range queryWords {
		if _, ok := candidateWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}

// WeightedScore scales the base relevance by the entry's importance and
// boosts it by access popularity.
func WeightedScore(base float64, e *Entry) float64 {
	return base * e.Importance * (1 + 0.1*float64(e.AccessCount))
}

// rankWeighted scores entries against the query with importance weighting,
// excluding expired and zero-score entries. The returned entries are ordered
// by score descending with ties broken by original position (stable sort).
// Each returned entry is touched: ranking and access bookkeeping are coupled.
func rankWeighted(query string, entries []*Entry, limit int) []*Entry {
	if limit <= 0 {
		return nil
	}
	queryWords := Tokenize(query)
	now := time.Now()

	type scored struct {
		entry *Entry
		score float64
	}
	candidates := make([]scored, 0, len(entries))
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		score := WeightedScore(BaseRelevance(queryWords, e.Content), e)
		if score == 0 {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*Entry, len(candidates))
	for i, c := range candidates {
		c.entry.Touch()
		out[i] = c.entry
	}
	return out
}
