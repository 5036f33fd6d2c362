// Package comparison fans a single refinement request out across
// multiple providers and aggregates the outcomes.
package comparison

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/optiq-dev/optiq/internal/catalog"
	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/engine"
	"github.com/optiq-dev/optiq/internal/provider"
	"github.com/optiq-dev/optiq/internal/style"
)

var ErrNotEnoughProviders = errors.New("comparison requires at least two providers with credentials")

// Entry is one provider's outcome. A failed entry keeps its error
// message, empty text, and zero usage, and still appears in the result
// set.
type Entry struct {
	Provider  provider.Provider
	Model     string
	FinalText string
	Usage     provider.TokenUsage
	CostUSD   float64
	Duration  time.Duration
	Cancelled bool
	Err       string
}

// Failed reports whether the entry captured a provider failure.
func (e Entry) Failed() bool { return e.Err != "" }

// Summary aggregates statistics over the entries. Averages cover fully
// completed runs only; cancelled runs are counted separately but their
// tokens and cost are real spend and stay in the totals.
type Summary struct {
	Succeeded      int
	Failed         int
	Cancelled      int
	AvgDuration    time.Duration
	AvgOutputChars int
	TotalCostUSD   float64
	TotalTokens    int
}

// Options configures a comparison run.
type Options struct {
	Prompt string

	// Providers restricts the comparison to an explicit subset. When
	// empty, every provider with a resolvable credential participates.
	Providers []provider.Provider

	// ModelOverrides picks a model per provider; the catalog default is
	// used otherwise.
	ModelOverrides map[provider.Provider]string

	Iterations int
	Style      style.Style
	Resolver   *credential.Resolver

	// Adapters overrides the registry lookup per provider; used by
	// tests.
	Adapters map[provider.Provider]provider.Adapter

	// Confirm, when set together with Iterations > 1, forces sequential
	// execution: concurrent providers cannot share one interactive
	// confirmation prompt.
	Confirm engine.ConfirmFunc

	Logger *zap.Logger
}

// Compare runs the same prompt against every selected provider and
// returns one entry per provider, sorted by provider identifier. A
// failure in one provider never alters another provider's outcome.
func Compare(ctx context.Context, opts Options) ([]Entry, Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	candidates := opts.Providers
	if len(candidates) == 0 {
		candidates = provider.All()
	} else {
		// A provider appears at most once in the result set; a repeated
		// name must not satisfy the two-provider minimum on its own.
		seen := make(map[provider.Provider]bool, len(candidates))
		unique := make([]provider.Provider, 0, len(candidates))
		for _, p := range candidates {
			if seen[p] {
				continue
			}
			seen[p] = true
			unique = append(unique, p)
		}
		candidates = unique
	}

	type target struct {
		provider   provider.Provider
		model      string
		credential credential.Credential
	}

	targets := make([]target, 0, len(candidates))
	unresolved := make([]provider.Provider, 0)
	resolvable := 0
	for _, p := range candidates {
		cred := credential.Credential{Source: credential.SourceNone}
		if opts.Resolver != nil {
			cred = opts.Resolver.Resolve(p, "")
		}
		if cred.Resolved() {
			resolvable++
		} else if len(opts.Providers) == 0 {
			// Implicit selection only includes providers that resolve.
			unresolved = append(unresolved, p)
			continue
		}

		model := opts.ModelOverrides[p]
		if model == "" {
			model = catalog.DefaultModel(p)
		}
		targets = append(targets, target{provider: p, model: model, credential: cred})
	}

	if resolvable < 2 {
		return nil, Summary{}, ErrNotEnoughProviders
	}

	logger.Debug("comparison selected providers",
		zap.Int("selected", len(targets)),
		zap.Int("skipped", len(unresolved)))

	runOne := func(ctx context.Context, tgt target, confirm engine.ConfirmFunc) Entry {
		start := time.Now()
		result, err := engine.Run(ctx, engine.RunOptions{
			Provider:   tgt.provider,
			Model:      tgt.model,
			Prompt:     opts.Prompt,
			Iterations: opts.Iterations,
			Style:      opts.Style,
			Credential: tgt.credential,
			Adapter:    opts.Adapters[tgt.provider],
			Confirm:    confirm,
			Logger:     logger,
		})
		entry := Entry{
			Provider: tgt.provider,
			Model:    tgt.model,
			Duration: time.Since(start),
		}
		if err != nil {
			entry.Err = err.Error()
			return entry
		}
		entry.FinalText = result.FinalText()
		entry.Usage = result.Usage
		entry.CostUSD = result.CostUSD
		entry.Cancelled = result.Cancelled
		return entry
	}

	sequential := opts.Iterations > 1 && opts.Confirm != nil

	var entries []Entry
	if sequential {
		// A declined confirmation stops only that provider's remaining
		// passes; the loop proceeds to the next provider.
		sort.Slice(targets, func(i, j int) bool { return targets[i].provider < targets[j].provider })
		for _, tgt := range targets {
			entries = append(entries, runOne(ctx, tgt, opts.Confirm))
		}
	} else {
		p := pool.NewWithResults[Entry]()
		for _, tgt := range targets {
			tgt := tgt
			p.Go(func() Entry {
				return runOne(ctx, tgt, nil)
			})
		}
		entries = p.Wait()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Provider < entries[j].Provider })

	return entries, summarize(entries), nil
}

func summarize(entries []Entry) Summary {
	summary := Summary{}
	var totalDuration time.Duration
	var totalChars int
	for _, entry := range entries {
		switch {
		case entry.Failed():
			summary.Failed++
		case entry.Cancelled:
			summary.Cancelled++
			summary.TotalCostUSD += entry.CostUSD
			summary.TotalTokens += entry.Usage.Total()
		default:
			summary.Succeeded++
			totalDuration += entry.Duration
			totalChars += len(entry.FinalText)
			summary.TotalCostUSD += entry.CostUSD
			summary.TotalTokens += entry.Usage.Total()
		}
	}
	if summary.Succeeded > 0 {
		summary.AvgDuration = totalDuration / time.Duration(summary.Succeeded)
		summary.AvgOutputChars = totalChars / summary.Succeeded
	}
	return summary
}
