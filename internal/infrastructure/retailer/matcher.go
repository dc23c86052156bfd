package retailer

import (
	"regexp"
	"strings"

	"github.com/glamfinder/backend/internal/domain"
)

var (
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
	volumeRegex      = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:ml|fl\s*oz|oz|g|gr|grams?|l)\b`)
)

// DefaultMinRelevance is the score (0-100) a listing needs to count as the searched product
const DefaultMinRelevance = 40.0

// listingStopWords are tokens that never help identify a cosmetic product
var listingStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "of": true, "in": true,
	"by": true, "a": true, "an": true, "to": true,
	"new": true, "set": true, "pack": true, "kit": true, "size": true,
	"travel": true, "mini": true, "full": true, "edition": true, "limited": true,
	"ml": true, "oz": true, "fl": true,
}

// Matcher scores how well a retailer listing title matches the searched product
type Matcher struct {
	minRelevance float64
	fuzzyDist    int
}

// NewMatcher creates a matcher; minRelevance <= 0 selects DefaultMinRelevance
func NewMatcher(minRelevance float64) *Matcher {
	if minRelevance <= 0 {
		minRelevance = DefaultMinRelevance
	}
	return &Matcher{minRelevance: minRelevance, fuzzyDist: 1}
}

// Filter keeps the listings whose title scores at or above the threshold, in input order.
// Listings without a title cannot be judged and are kept.
func (m *Matcher) Filter(query string, listings []domain.RetailerListing) []domain.RetailerListing {
	kept := make([]domain.RetailerListing, 0, len(listings))
	for _, l := range listings {
		if l.Title == "" || m.Score(query, l.Title) >= m.minRelevance {
			kept = append(kept, l)
		}
	}
	return kept
}

// Score returns a 0-100 relevance score.
//
// Query coverage weighs 60%, title coverage 20% and Jaccard similarity 20%;
// a containment bonus of 10 is added when one string contains the other.
func (m *Matcher) Score(query, title string) float64 {
	queryTokens := tokenize(query)
	titleTokens := tokenize(title)
	if len(queryTokens) == 0 || len(titleTokens) == 0 {
		return 0
	}

	queryMatched := m.countMatches(queryTokens, titleTokens)
	titleMatched := m.countMatches(titleTokens, queryTokens)

	queryCoverage := float64(queryMatched) / float64(len(queryTokens))
	titleCoverage := float64(titleMatched) / float64(len(titleTokens))
	jaccard := float64(queryMatched) / float64(findUnion(queryTokens, titleTokens))

	score := (queryCoverage*0.60 + titleCoverage*0.20 + jaccard*0.20) * 100

	q := strings.Join(queryTokens, " ")
	t := strings.Join(titleTokens, " ")
	if len(q) > 3 && (strings.Contains(t, q) || strings.Contains(q, t)) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// countMatches counts tokens of a that have an exact or fuzzy counterpart in b
func (m *Matcher) countMatches(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}

	n := 0
	for _, t := range a {
		if set[t] {
			n++
			continue
		}
		for _, other := range b {
			if fuzzyTokenMatch(t, other, m.fuzzyDist) {
				n++
				break
			}
		}
	}
	return n
}

// tokenize lowercases, strips volumes and punctuation, and drops stop words and numbers
func tokenize(s string) []string {
	s = volumeRegex.ReplaceAllString(strings.ToLower(s), " ")
	s = punctuationRegex.ReplaceAllString(s, " ")

	seen := make(map[string]bool)
	var tokens []string
	for _, w := range strings.Fields(s) {
		if len(w) <= 1 || listingStopWords[w] || isNumeric(w) || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch treats tokens longer than four characters within the edit distance as equal
func fuzzyTokenMatch(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if len(a) < 5 || len(b) < 5 {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > threshold {
		return false
	}
	return levenshteinDistance(a, b) <= threshold
}

func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func findUnion(a, b []string) int {
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	return len(set)
}
