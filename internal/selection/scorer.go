package selection

import (
	"sort"
	"strings"
	"unicode"

	"EhonBot/internal/domain"
)

const (
	similarityWeight = 0.8
	popularityWeight = 0.2
	reviewCountCap   = 1000
)

// Score blends title fidelity with capped review popularity. Title
// similarity dominates; among near-equal matches the more reviewed item
// wins.
func Score(it domain.CatalogItem, target string) float64 {
	rc := it.ReviewCount
	if rc > reviewCountCap {
		rc = reviewCountCap
	}
	if rc < 0 {
		rc = 0
	}
	return similarityWeight*overlapRatio(it.Title, target) + popularityWeight*float64(rc)/reviewCountCap
}

// Rank returns the items ordered best-first against the target title.
// The sort is stable, so equal scores keep their input order.
func Rank(items []domain.CatalogItem, target string) []domain.CatalogItem {
	ranked := make([]domain.CatalogItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], target) > Score(ranked[j], target)
	})
	return ranked
}

// Normalize collapses a title or author for identity comparison:
// whitespace (ASCII and ideographic) removed, letters lowercased.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// overlapRatio is a normalized string-overlap ratio in [0,1]:
// 2*LCS(a,b) / (len(a)+len(b)) over normalized runes.
func overlapRatio(a, b string) float64 {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 2 * float64(lcs(ra, rb)) / float64(len(ra)+len(rb))
}

func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
