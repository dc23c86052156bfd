package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// QueryPreprocessor cleans user-typed product names before they are sent to retailers
type QueryPreprocessor struct {
	logger logrus.FieldLogger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches volume/weight/count patterns like "50 ml", "1.7 fl oz", "3.5g", "2 pcs"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:fl\.?\s*oz|oz|ml|gr|grams?|g|ct|count|pcs?|pieces?|pack)\b`)

	// Matches marketplace tags like "[Limited Edition]" or "【Authentic】"
	bracketTagPattern = regexp.MustCompile(`\[[^\]]*\]|【[^】]*】`)

	// Matches standalone numbers left at the edges (e.g. ", 2", "- 3")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	orphanPunctuationPattern   = regexp.MustCompile(`\s+[,\-;:|/]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:|/]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:|/]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are listing and marketing terms that never identify a product
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"new":         true,
	"authentic":   true,
	"genuine":     true,
	"official":    true,
	"bestseller":  true,
	"bestselling": true,
	"hot":         true,
	"sale":        true,
	"exclusive":   true,

	// Shipping terms
	"free":     true,
	"fast":     true,
	"shipping": true,
	"delivery": true,

	// Packaging terms
	"full":  true,
	"size":  true,
	"boxed": true,
	"box":   true,
	"nib":   true,
}

// maxQueryLength is in bytes; truncation never splits a rune
const maxQueryLength = 100

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger logrus.FieldLogger) *QueryPreprocessor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QueryPreprocessor{logger: logger}
}

// PreprocessQuery cleans a product name for retailer search.
// Removes sizes, bracketed tags, marketing terms and normalizes whitespace.
// The result is lowercase and may be empty if nothing meaningful remains.
func (p *QueryPreprocessor) PreprocessQuery(productName string) string {
	if productName == "" {
		return ""
	}

	original := productName

	cleaned := bracketTagPattern.ReplaceAllString(productName, " ")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = cleanOrphanedPunctuation(cleaned)

	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cut := maxQueryLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	p.logger.WithFields(logrus.Fields{
		"input":  original,
		"output": cleaned,
	}).Debug("[PREPROCESS] Cleaned product query")

	return cleaned
}

// removeNoiseWords lowercases the query and drops marketing and shipping terms
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:-'\"")
		if !queryNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes separators left alone after earlier steps
func cleanOrphanedPunctuation(s string) string {
	result := orphanPunctuationPattern.ReplaceAllString(s, " ")
	result = trailingPunctuationPattern.ReplaceAllString(result, "")
	return leadingPunctuationPattern.ReplaceAllString(result, "")
}
