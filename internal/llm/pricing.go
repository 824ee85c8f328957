package llm

// ModelCost holds per-million-token pricing for a model.
// Prices are in USD per 1 million tokens, sourced from models.dev.
type ModelCost struct {
	InputPerMTok  float64 // USD per 1M input tokens
	OutputPerMTok float64 // USD per 1M output tokens
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers the models the app can be configured with.
// Prices per models.dev, checked 2026-09.
var modelCosts = map[string]ModelCost{
	// Google (Gemini)
	"gemini-2.0-flash":             {0.1, 0.4},
	"gemini-2.5-flash":             {0.3, 2.5},
	"gemini-2.5-flash-preview-tts": {0.5, 10},
	"gemini-2.5-pro":               {1.25, 10},
	"gemini-3-flash-preview":       {0.5, 3},
	"gemini-3-pro-preview":         {2, 12},

	// Anthropic
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-20250514":   {3, 15},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},

	// OpenAI; gpt-4o backs the premium tutor
	"gpt-4o":            {2.5, 10},
	"gpt-4o-2024-08-06": {2.5, 10},
	"gpt-4o-2024-11-20": {2.5, 10},
	"gpt-4o-mini":       {0.15, 0.6},
	"gpt-4.1-mini":      {0.4, 1.6},
}
