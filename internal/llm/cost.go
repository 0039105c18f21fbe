package llm

import "strings"

// visionPricing is USD per 1M tokens for the vision models numisight is
// configured with. Image input is billed as input tokens.
var visionPricing = map[string][2]float64{
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"gpt-4o":                     {2.50, 10.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"gemini-2.0-flash":           {0.10, 0.40},
	"gemini-1.5-pro":             {1.25, 5.00},
}

// localModels run on an Ollama host and cost nothing per token.
var localModels = map[string]bool{
	"llava":           true,
	"llava-llama3":    true,
	"bakllava":        true,
	"llama3.2-vision": true,
}

// EstimateCost returns the USD cost of one classification call. OpenRouter
// ids such as "openai/gpt-4o-mini" are priced as the upstream model, and
// Ollama tags ("llava:13b") as their base model. Unknown models cost 0.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1e6*price[0] + float64(outputTokens)/1e6*price[1]
}

// KnownModel reports whether EstimateCost has a price, possibly zero, for model.
func KnownModel(model string) bool {
	_, ok := lookupPrice(model)
	return ok
}

func lookupPrice(model string) ([2]float64, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	if p, ok := visionPricing[model]; ok {
		return p, true
	}
	base, _, _ := strings.Cut(model, ":")
	if localModels[base] {
		return [2]float64{}, true
	}
	return [2]float64{}, false
}

// EstimateTokens approximates the token count of text at 4 bytes per
// token. Used when a provider reports no usage.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return max(len(text)/4, 1)
}
