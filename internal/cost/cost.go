// Package cost implements pre-run cost estimation and post-run cost
// accounting for refinement runs.
package cost

import (
	"math"

	"github.com/optiq-dev/optiq/internal/catalog"
	"github.com/optiq-dev/optiq/internal/provider"
)

// Estimation constants. The chars-per-token divisor is a fixed
// approximation, not a real tokenizer, and the output inflation factor
// assumes each pass returns slightly more text than it was given.
// Changing either changes every estimate the tool reports.
const (
	charsPerToken   = 4
	outputInflation = 1.2
)

// Estimate is a pre-run cost projection. It is diagnostic, never
// authoritative; actual cost comes from the usage the provider reports.
type Estimate struct {
	InputTokens  int
	OutputTokens int
	USD          float64
}

// EstimateTokens approximates the token count of text as
// ceil(len(text) / 4).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateRun projects tokens and cost for an iterated refinement.
// Pass 1 input is the system prompt plus the user prompt; each pass is
// assumed to emit ceil(input x 1.2) tokens, and that output becomes the
// next pass's input. Tokens and cost accumulate across passes.
func EstimateRun(systemPrompt, userPrompt, model string, iterations int) Estimate {
	if iterations < 1 {
		iterations = 1
	}

	pricing, _ := catalog.LookupPricing(model)

	input := EstimateTokens(systemPrompt) + EstimateTokens(userPrompt)
	estimate := Estimate{}
	for pass := 0; pass < iterations; pass++ {
		output := int(math.Ceil(float64(input) * outputInflation))
		estimate.InputTokens += input
		estimate.OutputTokens += output
		estimate.USD += tokenCost(input, output, pricing)
		input = output
	}
	return estimate
}

// Actual converts reported usage into USD using the catalog pricing for
// the model. An unknown model costs 0, never an error.
func Actual(usage provider.TokenUsage, model string) float64 {
	pricing, ok := catalog.LookupPricing(model)
	if !ok {
		return 0
	}
	return tokenCost(usage.InputTokens, usage.OutputTokens, pricing)
}

// AccuracyRatio reports estimated over actual cost as a percentage.
// Diagnostic only; returns 0 when the actual cost is zero.
func AccuracyRatio(estimated, actual float64) float64 {
	if actual == 0 {
		return 0
	}
	return estimated / actual * 100
}

func tokenCost(inputTokens, outputTokens int, pricing catalog.Pricing) float64 {
	return float64(inputTokens)/1e6*pricing.InputPerMillion +
		float64(outputTokens)/1e6*pricing.OutputPerMillion
}
