package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// analysisPrompt must not name ingredients or effects itself; offline models read the whole prompt.
var analysisPrompt = template.Must(template.New("analysis").Parse(`You are a cosmetics expert helping shoppers understand a beauty product before they buy it.

Read the product description below and report:
1. The key ingredients, each followed by a short note on what it does.
2. The qualities of the product and the effects a shopper can expect.
3. Similar or complementary products worth considering.
If the description allows it, add a short safety rating and usage instructions.

Product description:
{{.ProductDescription}}

Answer with a single JSON object with the fields keyIngredients, qualities, suggestedProducts, safetyRating and usageInstructions.
`))

// DescriptionAnalyzer turns a free-text product description into a structured analysis
type DescriptionAnalyzer struct {
	model  domain.LanguageModel
	schema map[string]interface{}
	logger logrus.FieldLogger
}

// NewDescriptionAnalyzer creates an analyzer backed by the given model
func NewDescriptionAnalyzer(model domain.LanguageModel, logger logrus.FieldLogger) *DescriptionAnalyzer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DescriptionAnalyzer{
		model:  model,
		schema: domain.AnalysisOutputSchema(),
		logger: logger,
	}
}

// AnalyzeProductDescription asks the model for an analysis and validates its shape.
// Empty descriptions are rejected before the model is called.
func (a *DescriptionAnalyzer) AnalyzeProductDescription(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	description := strings.TrimSpace(req.ProductDescription)
	if description == "" {
		return nil, domain.ErrEmptyDescription
	}

	var prompt bytes.Buffer
	if err := analysisPrompt.Execute(&prompt, domain.AnalysisRequest{ProductDescription: description}); err != nil {
		return nil, fmt.Errorf("render analysis prompt: %w", err)
	}

	start := time.Now()
	raw, err := a.model.GenerateJSON(ctx, prompt.String(), a.schema)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.WithError(err).Warn("[ANALYZE] Model call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}

	result, err := parseAnalysis(raw)
	if err != nil {
		a.logger.WithError(err).WithField("response", truncateText(raw, 200)).Warn("[ANALYZE] Invalid model output")
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"ingredients": len(result.KeyIngredients),
		"qualities":   len(result.Qualities),
		"duration":    time.Since(start).String(),
	}).Info("[ANALYZE] Description analyzed")

	return result, nil
}

// parseAnalysis checks every known field against its declared type.
// Unknown fields are ignored and missing lists become empty.
func parseAnalysis(raw string) (*domain.AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrSchemaViolation)
	}

	result := &domain.AnalysisResult{}
	var err error

	if result.KeyIngredients, err = decodeStringList(fields, "keyIngredients"); err != nil {
		return nil, err
	}
	if result.Qualities, err = decodeStringList(fields, "qualities"); err != nil {
		return nil, err
	}
	if result.SuggestedProducts, err = decodeStringList(fields, "suggestedProducts"); err != nil {
		return nil, err
	}
	if result.SafetyRating, err = decodeString(fields, "safetyRating"); err != nil {
		return nil, err
	}
	if result.UsageInstructions, err = decodeString(fields, "usageInstructions"); err != nil {
		return nil, err
	}

	result.Normalize()
	return result, nil
}

func decodeStringList(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok || isJSONNull(raw) {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %s must be a list of strings", domain.ErrSchemaViolation, name)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func decodeString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isJSONNull(raw) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", domain.ErrSchemaViolation, name)
	}
	return s, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
