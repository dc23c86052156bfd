package domain

// AnalysisRequest is the input of a description analysis
type AnalysisRequest struct {
	ProductDescription string `json:"productDescription" binding:"required"`
}

// AnalysisResult holds the structured fields extracted by the language model
type AnalysisResult struct {
	KeyIngredients    []string `json:"keyIngredients"`
	Qualities         []string `json:"qualities"`
	SuggestedProducts []string `json:"suggestedProducts"`
	SafetyRating      string   `json:"safetyRating,omitempty"`
	UsageInstructions string   `json:"usageInstructions,omitempty"`
}

// Normalize replaces nil lists with empty ones so omitted fields serialize as []
func (r *AnalysisResult) Normalize() {
	if r.KeyIngredients == nil {
		r.KeyIngredients = []string{}
	}
	if r.Qualities == nil {
		r.Qualities = []string{}
	}
	if r.SuggestedProducts == nil {
		r.SuggestedProducts = []string{}
	}
}

// AnalysisOutputSchema returns the JSON schema the model output must satisfy
func AnalysisOutputSchema() map[string]interface{} {
	stringList := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": description,
		}
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"keyIngredients":    stringList("Key ingredients identified in the description, with their benefits."),
			"qualities":         stringList("Qualities or benefits described, including effects on skin or hair."),
			"suggestedProducts": stringList("Similar or complementary products."),
			"safetyRating": map[string]interface{}{
				"type":        []string{"string", "null"},
				"description": "Short overall safety assessment, or null when unknown.",
			},
			"usageInstructions": map[string]interface{}{
				"type":        []string{"string", "null"},
				"description": "How the product is typically applied, or null when unknown.",
			},
		},
		// Strict structured output requires every property to be listed; optional ones are nullable
		"required":             []string{"keyIngredients", "qualities", "suggestedProducts", "safetyRating", "usageInstructions"},
		"additionalProperties": false,
	}
}
