package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

type ingredient struct {
	name       string
	aliases    []string
	benefit    string
	suggestion string
	active     bool
}

// Order matters: results follow this order, not the order of appearance.
var ingredientLexicon = []ingredient{
	{"Hyaluronic Acid", []string{"hyaluronic acid", "sodium hyaluronate", "hyaluronan"}, "binds water to plump and hydrate the skin", "The Ordinary Hyaluronic Acid 2% + B5", false},
	{"Niacinamide", []string{"niacinamide", "vitamin b3"}, "evens tone and refines the look of pores", "The Ordinary Niacinamide 10% + Zinc 1%", false},
	{"Retinol", []string{"retinol", "retinal", "retinoid", "retinyl palmitate"}, "speeds cell turnover to soften fine lines", "CeraVe Resurfacing Retinol Serum", true},
	{"Vitamin C", []string{"vitamin c", "ascorbic acid", "ascorbyl glucoside", "ascorbyl palmitate"}, "brightens and defends against free radicals", "Skinceuticals C E Ferulic", false},
	{"Salicylic Acid", []string{"salicylic acid", "bha"}, "clears pores and calms breakouts", "Paula's Choice 2% BHA Liquid Exfoliant", true},
	{"Glycolic Acid", []string{"glycolic acid", "aha"}, "resurfaces dull texture", "Pixi Glow Tonic", true},
	{"Ceramides", []string{"ceramide", "ceramides"}, "rebuild the moisture barrier", "CeraVe Moisturizing Cream", false},
	{"Peptides", []string{"peptide", "peptides", "matrixyl"}, "support firmness and elasticity", "The Inkey List Collagen Peptide Serum", false},
	{"Squalane", []string{"squalane"}, "lightweight lipid that softens without greasiness", "Biossance Squalane + Omega Repair Cream", false},
	{"Shea Butter", []string{"shea butter", "shea"}, "rich emollient that seals in moisture", "L'Occitane Shea Butter Hand Cream", false},
	{"Zinc Oxide", []string{"zinc oxide"}, "mineral filter for broad-spectrum UV defense", "EltaMD UV Clear SPF 46", false},
	{"Caffeine", []string{"caffeine"}, "depuffs and tightens temporarily", "The Ordinary Caffeine Solution 5% + EGCG", false},
	{"Centella Asiatica", []string{"centella asiatica", "centella", "cica"}, "soothes redness and supports repair", "Dr. Jart+ Cicapair Tiger Grass Cream", false},
	{"Aloe Vera", []string{"aloe vera", "aloe"}, "cools and soothes irritation", "Holika Holika Aloe 99% Soothing Gel", false},
	{"Glycerin", []string{"glycerin", "glycerine"}, "humectant that draws moisture into the skin", "Neutrogena Hydro Boost Water Gel", false},
	{"Jojoba Oil", []string{"jojoba"}, "balances oil and conditions skin and hair", "The Ordinary 100% Organic Cold-Pressed Moroccan Argan Oil", false},
	{"Argan Oil", []string{"argan"}, "nourishes and adds shine to hair", "Moroccanoil Treatment", false},
	{"Collagen", []string{"collagen"}, "film-forming protein that smooths the surface", "Elizabeth Arden Prevage Collagen Serum", false},
	{"Gold", []string{"gold", "24k", "24-karat"}, "luxury finish with a luminous reflect", "Orogold 24K Deep Peeling", false},
	{"Platinum", []string{"platinum"}, "marketed for firming and radiance in prestige creams", "La Prairie Skin Caviar Luxe Cream", false},
}

type quality struct {
	label    string
	patterns []string
}

var qualityLexicon = []quality{
	{"Hydrating", []string{`hydrat`, `moistur`, `plump`, `dew`}},
	{"Brightening", []string{`brighten`, `radian`, `luminous`, `glow`}},
	{"Anti-aging", []string{`anti-?aging`, `wrinkle`, `fine lines`, `youth`, `revitaliz`, `rejuvenat`}},
	{"Firming", []string{`firm`, `lift`, `elastic`}},
	{"Soothing", []string{`sooth`, `calm`, `sensitive`, `redness`}},
	{"Exfoliating", []string{`exfoliat`, `resurfac`, `peel`}},
	{"Blemish-fighting", []string{`acne`, `blemish`, `breakout`, `pore`}},
	{"Sun protection", []string{`spf`, `sunscreen`, `uv`}},
	{"Long-wearing", []string{`long-?lasting`, `long-?wear`, `all-day`, `smudge-?proof`}},
	{"Fragrance-free", []string{`fragrance-?free`, `unscented`}},
	{"Fragrance", []string{`parfum`, `perfume`, `eau de`, `floral`, `scent`}},
	{"Color payoff", []string{`pigment`, `shade`, `lipstick`, `color`, `colour`}},
	{"Nourishing", []string{`nourish`, `repair`, `restor`}},
}

var (
	ingredientPatterns []*regexp.Regexp
	qualityPatterns    []*regexp.Regexp
)

func init() {
	for _, ing := range ingredientLexicon {
		quoted := make([]string, len(ing.aliases))
		for i, a := range ing.aliases {
			quoted[i] = regexp.QuoteMeta(a)
		}
		ingredientPatterns = append(ingredientPatterns,
			regexp.MustCompile(`(?i)\b(?:`+strings.Join(quoted, "|")+`)\b`))
	}
	for _, q := range qualityLexicon {
		qualityPatterns = append(qualityPatterns,
			regexp.MustCompile(`(?i)\b(?:`+strings.Join(q.patterns, "|")+`)`))
	}
}

// LexiconModel is an offline LanguageModel that answers from a fixed
// cosmetic ingredient vocabulary. Output is deterministic for a given prompt.
type LexiconModel struct {
	logger logrus.FieldLogger
}

// NewLexiconModel creates the offline model
func NewLexiconModel(logger logrus.FieldLogger) *LexiconModel {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LexiconModel{logger: logger}
}

type lexiconReply struct {
	KeyIngredients    []string `json:"keyIngredients"`
	Qualities         []string `json:"qualities"`
	SuggestedProducts []string `json:"suggestedProducts"`
	SafetyRating      string   `json:"safetyRating,omitempty"`
	UsageInstructions string   `json:"usageInstructions,omitempty"`
}

// GenerateJSON scans the prompt and ignores the schema; its reply already conforms
func (m *LexiconModel) GenerateJSON(ctx context.Context, prompt string, _ map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reply := lexiconReply{
		KeyIngredients:    []string{},
		Qualities:         []string{},
		SuggestedProducts: []string{},
	}

	hasActive := false
	for i, ing := range ingredientLexicon {
		if !ingredientPatterns[i].MatchString(prompt) {
			continue
		}
		reply.KeyIngredients = append(reply.KeyIngredients, fmt.Sprintf("%s: %s", ing.name, ing.benefit))
		reply.SuggestedProducts = append(reply.SuggestedProducts, ing.suggestion)
		hasActive = hasActive || ing.active
	}

	for i, q := range qualityLexicon {
		if qualityPatterns[i].MatchString(prompt) {
			reply.Qualities = append(reply.Qualities, q.label)
		}
	}

	if len(reply.KeyIngredients) > 0 {
		if hasActive {
			reply.SafetyRating = "Contains strong actives; patch test and introduce gradually. Use daily SPF."
			reply.UsageInstructions = "Apply a thin layer to clean, dry skin in the evening, starting two to three nights a week."
		} else {
			reply.SafetyRating = "Generally well tolerated."
			reply.UsageInstructions = "Apply to clean skin morning and evening."
		}
	}

	m.logger.WithFields(logrus.Fields{
		"ingredients": len(reply.KeyIngredients),
		"qualities":   len(reply.Qualities),
	}).Debug("[LEXICON] Generated analysis")

	out, err := json.Marshal(reply)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}
	return string(out), nil
}
