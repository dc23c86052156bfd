package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/glamfinder/backend/internal/infrastructure/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeProductDescription_EmptyRejectedBeforeDispatch(t *testing.T) {
	model := &MockLanguageModel{response: `{}`}
	analyzer := NewDescriptionAnalyzer(model, nil)

	for _, desc := range []string{"", "   ", "\n\t"} {
		_, err := analyzer.AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{ProductDescription: desc})
		assert.ErrorIs(t, err, domain.ErrEmptyDescription)
	}

	assert.Equal(t, int32(0), model.calls)
}

func TestAnalyzeProductDescription_PromptAndSchema(t *testing.T) {
	model := &MockLanguageModel{response: `{"keyIngredients":["Squalane"],"qualities":[],"suggestedProducts":[]}`}
	analyzer := NewDescriptionAnalyzer(model, nil)

	_, err := analyzer.AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "  A featherlight squalane oil.  ",
	})
	require.NoError(t, err)

	assert.Contains(t, model.lastPrompt, "A featherlight squalane oil.")
	assert.NotContains(t, model.lastPrompt, "  A featherlight")
	assert.Equal(t, "object", model.lastSchema["type"])
}

func TestAnalyzeProductDescription_ParsesFields(t *testing.T) {
	model := &MockLanguageModel{response: `{
		"keyIngredients": ["Hyaluronic Acid: hydrates", "Niacinamide: evens tone"],
		"qualities": ["Hydrating"],
		"suggestedProducts": ["CeraVe Moisturizing Cream"],
		"safetyRating": "Generally well tolerated.",
		"usageInstructions": "Apply twice daily.",
		"confidence": 0.9
	}`}

	result, err := NewDescriptionAnalyzer(model, nil).AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "serum",
	})

	require.NoError(t, err)
	assert.Len(t, result.KeyIngredients, 2)
	assert.Equal(t, []string{"Hydrating"}, result.Qualities)
	assert.Equal(t, []string{"CeraVe Moisturizing Cream"}, result.SuggestedProducts)
	assert.Equal(t, "Generally well tolerated.", result.SafetyRating)
	assert.Equal(t, "Apply twice daily.", result.UsageInstructions)
}

func TestAnalyzeProductDescription_MissingListsDefaultToEmpty(t *testing.T) {
	model := &MockLanguageModel{response: `{"keyIngredients": null}`}

	result, err := NewDescriptionAnalyzer(model, nil).AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "serum",
	})

	require.NoError(t, err)
	assert.NotNil(t, result.KeyIngredients)
	assert.NotNil(t, result.Qualities)
	assert.NotNil(t, result.SuggestedProducts)
	assert.Empty(t, result.KeyIngredients)
}

func TestAnalyzeProductDescription_SchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", `I think this product is great`},
		{"array instead of object", `["retinol"]`},
		{"null document", `null`},
		{"list of numbers", `{"keyIngredients": [1, 2]}`},
		{"string instead of list", `{"qualities": "Hydrating"}`},
		{"number instead of string", `{"safetyRating": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &MockLanguageModel{response: tt.response}

			result, err := NewDescriptionAnalyzer(model, nil).AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
				ProductDescription: "serum",
			})

			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrSchemaViolation)
			assert.Equal(t, int32(1), model.calls, "no retry on invalid output")
		})
	}
}

func TestAnalyzeProductDescription_ModelUnavailable(t *testing.T) {
	model := &MockLanguageModel{err: errors.New("dial tcp: connection refused")}

	_, err := NewDescriptionAnalyzer(model, nil).AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "serum",
	})

	assert.ErrorIs(t, err, domain.ErrAIUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyzeProductDescription_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDescriptionAnalyzer(llm.NewLexiconModel(nil), nil).AnalyzeProductDescription(ctx, domain.AnalysisRequest{
		ProductDescription: "serum",
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeProductDescription_LexiconModel(t *testing.T) {
	analyzer := NewDescriptionAnalyzer(llm.NewLexiconModel(nil), nil)

	result, err := analyzer.AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "Contains hyaluronic acid and niacinamide, brightens skin",
	})

	require.NoError(t, err)
	require.NotEmpty(t, result.KeyIngredients)

	joined := strings.ToLower(strings.Join(result.KeyIngredients, " "))
	assert.True(t, strings.Contains(joined, "hyaluronic") || strings.Contains(joined, "niacinamide"))
	assert.Contains(t, result.Qualities, "Brightening")
}

func TestAnalyzeProductDescription_PromptDoesNotLeakIntoLexicon(t *testing.T) {
	analyzer := NewDescriptionAnalyzer(llm.NewLexiconModel(nil), nil)

	result, err := analyzer.AnalyzeProductDescription(context.Background(), domain.AnalysisRequest{
		ProductDescription: "A plain cardboard box.",
	})

	require.NoError(t, err)
	assert.Empty(t, result.KeyIngredients)
	assert.Empty(t, result.Qualities)
	assert.Empty(t, result.SuggestedProducts)
}
