package vectordb

import (
	"sort"
	"strings"
	"unicode"
)

// queryTerms lowercases text and keeps distinct words of three or more
// letters or digits.
func queryTerms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// keywordScore is the fraction of terms found in text, compared
// case-insensitively. terms must already be lowercase.
func keywordScore(text string, terms []string) float32 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float32(matched) / float32(len(terms))
}

// topK sorts hits by similarity, highest first, and keeps at most k.
func topK(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
