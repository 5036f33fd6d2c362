// Package engine drives iterative prompt refinement against a single
// provider adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/optiq-dev/optiq/internal/cost"
	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/provider"
	"github.com/optiq-dev/optiq/internal/style"
)

const (
	MinIterations = 1
	MaxIterations = 5
)

var (
	ErrIterationsOutOfRange = fmt.Errorf("iterations must be between %d and %d", MinIterations, MaxIterations)
	ErrNoCredential         = errors.New("no credential resolved for provider")
	ErrEmptyPrompt          = errors.New("prompt is required")
)

// ConfirmFunc answers a yes/no question at a suspension point. The
// engine has no dependency on any particular input mechanism; the
// caller injects one only when per-pass confirmation applies.
type ConfirmFunc func(prompt string) bool

// PassResult is the outcome of one refinement pass. Pass i's text is
// pass i+1's input.
type PassResult struct {
	Pass  int
	Text  string
	Usage provider.TokenUsage
}

// RunOptions configures a refinement run.
type RunOptions struct {
	Provider   provider.Provider
	Model      string
	Prompt     string
	Iterations int
	Style      style.Style
	Credential credential.Credential

	// Adapter overrides the registry lookup; used by orchestration and
	// tests.
	Adapter provider.Adapter

	// Confirm, when set, is asked between passes. Declining cancels the
	// remaining passes and keeps the completed ones.
	Confirm ConfirmFunc

	Logger *zap.Logger
}

// RunResult carries every completed pass plus run-level accounting.
// Accumulated usage is never rolled back on cancel or failure.
type RunResult struct {
	Passes    []PassResult
	Usage     provider.TokenUsage
	CostUSD   float64
	Duration  time.Duration
	Cancelled bool
}

// FinalText returns the last completed pass's text, or empty when no
// pass completed.
func (r RunResult) FinalText() string {
	if len(r.Passes) == 0 {
		return ""
	}
	return r.Passes[len(r.Passes)-1].Text
}

// Run executes a strictly sequential chain of refinement passes. On
// adapter failure the completed passes are returned alongside the
// error; a declined confirmation returns the partial result with
// Cancelled set and no error.
func Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	result := RunResult{}

	if strings.TrimSpace(opts.Prompt) == "" {
		return result, ErrEmptyPrompt
	}
	if opts.Iterations < MinIterations || opts.Iterations > MaxIterations {
		return result, fmt.Errorf("%w: got %d", ErrIterationsOutOfRange, opts.Iterations)
	}
	if !opts.Credential.Resolved() {
		return result, fmt.Errorf("%w: %s", ErrNoCredential, opts.Provider)
	}

	adapter, err := resolveAdapter(opts)
	if err != nil {
		return result, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt := BuildSystemPrompt(opts.Style)
	input := opts.Prompt
	start := time.Now()

	for pass := 1; pass <= opts.Iterations; pass++ {
		if pass > 1 && opts.Confirm != nil {
			question := fmt.Sprintf("Continue with pass %d of %d?", pass, opts.Iterations)
			if !opts.Confirm(question) {
				logger.Info("run cancelled between passes",
					zap.String("provider", opts.Provider.String()),
					zap.Int("completed_passes", pass-1))
				result.Cancelled = true
				break
			}
		}

		logger.Debug("starting refinement pass",
			zap.String("provider", opts.Provider.String()),
			zap.String("model", opts.Model),
			zap.Int("pass", pass),
			zap.Int("total", opts.Iterations))

		response, err := adapter.Complete(ctx, provider.Request{
			Model:        opts.Model,
			SystemPrompt: systemPrompt,
			UserPrompt:   input,
			APIKey:       opts.Credential.Value,
		})
		if err != nil {
			result.Duration = time.Since(start)
			result.CostUSD = cost.Actual(result.Usage, opts.Model)
			return result, err
		}

		result.Passes = append(result.Passes, PassResult{
			Pass:  pass,
			Text:  response.Text,
			Usage: response.Usage,
		})
		result.Usage = result.Usage.Add(response.Usage)

		// The next pass refines this pass's output verbatim.
		input = response.Text
	}

	result.Duration = time.Since(start)
	result.CostUSD = cost.Actual(result.Usage, opts.Model)

	logger.Debug("run finished",
		zap.String("provider", opts.Provider.String()),
		zap.Int("passes", len(result.Passes)),
		zap.Bool("cancelled", result.Cancelled),
		zap.Float64("cost_usd", result.CostUSD))

	return result, nil
}

// BuildSystemPrompt composes the refinement instruction plus the style
// directive.
func BuildSystemPrompt(s style.Style) string {
	base := "You are a prompt engineer. Rewrite the user's prompt to be clearer, " +
		"more specific, and more likely to produce a high-quality response. " +
		"Return only the rewritten prompt with no commentary."
	directive := s.Directive()
	if directive == "" {
		return base
	}
	return base + " " + directive
}

func resolveAdapter(opts RunOptions) (provider.Adapter, error) {
	if opts.Adapter != nil {
		return opts.Adapter, nil
	}
	adapter, ok := provider.Get(opts.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrAdapterNotFound, opts.Provider)
	}
	return adapter, nil
}
