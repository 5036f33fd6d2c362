package comparison

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/provider"
)

type stubAdapter struct {
	provider provider.Provider
	suffix   string
	usage    provider.TokenUsage
	fail     bool
	delay    time.Duration
}

func (a *stubAdapter) Provider() provider.Provider { return a.provider }

func (a *stubAdapter) Complete(_ context.Context, req provider.Request) (provider.Response, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.fail {
		return provider.Response{}, provider.NewError(a.provider, "stub failure", errors.New("boom"))
	}
	return provider.Response{
		Text:  req.UserPrompt + a.suffix,
		Usage: a.usage,
	}, nil
}

func resolverWith(keys map[provider.Provider]string) *credential.Resolver {
	return credential.NewResolver(credential.ResolverOptions{
		LookupEnv: func(key string) (string, bool) {
			for p, value := range keys {
				if credential.EnvVar(p) == key {
					return value, true
				}
			}
			return "", false
		},
		ConfigValue: func(string) (string, bool) { return "", false },
	})
}

func threeProviderOptions(failing provider.Provider) Options {
	usage := provider.TokenUsage{InputTokens: 50, OutputTokens: 25}
	adapters := map[provider.Provider]provider.Adapter{
		provider.OpenAI:    &stubAdapter{provider: provider.OpenAI, suffix: " [A]", usage: usage, fail: failing == provider.OpenAI},
		provider.Anthropic: &stubAdapter{provider: provider.Anthropic, suffix: " [B]", usage: usage, fail: failing == provider.Anthropic},
		provider.Google:    &stubAdapter{provider: provider.Google, suffix: " [C]", usage: usage, fail: failing == provider.Google},
	}
	return Options{
		Prompt:     "improve this",
		Providers:  []provider.Provider{provider.OpenAI, provider.Anthropic, provider.Google},
		Iterations: 1,
		Resolver: resolverWith(map[provider.Provider]string{
			provider.OpenAI:    "sk-a",
			provider.Anthropic: "sk-b",
			provider.Google:    "sk-c",
		}),
		Adapters: adapters,
	}
}

func TestCompareIsolatesOneFailingProvider(t *testing.T) {
	entries, summary, err := Compare(context.Background(), threeProviderOptions(provider.Anthropic))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	failed := 0
	for _, entry := range entries {
		if entry.Failed() {
			failed++
			assert.Equal(t, provider.Anthropic, entry.Provider)
			assert.Empty(t, entry.FinalText)
			assert.Zero(t, entry.Usage)
		} else {
			assert.NotEmpty(t, entry.FinalText)
		}
	}
	assert.Equal(t, 1, failed)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	// Stats cover the successful subset only: 2 runs x 75 tokens.
	assert.Equal(t, 150, summary.TotalTokens)
}

func TestCompareSortsEntriesDeterministically(t *testing.T) {
	opts := threeProviderOptions("")
	// Stagger completion so physical finish order differs from
	// identifier order.
	opts.Adapters[provider.OpenAI].(*stubAdapter).delay = 30 * time.Millisecond
	opts.Adapters[provider.Anthropic].(*stubAdapter).delay = 10 * time.Millisecond
	opts.Adapters[provider.Google].(*stubAdapter).delay = 20 * time.Millisecond

	first, _, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	second, _, err := Compare(context.Background(), opts)
	require.NoError(t, err)

	want := []provider.Provider{provider.Anthropic, provider.Google, provider.OpenAI}
	for i, entry := range first {
		assert.Equal(t, want[i], entry.Provider)
		assert.Equal(t, want[i], second[i].Provider)
	}
}

func TestCompareRequiresTwoResolvableProviders(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Resolver = resolverWith(map[provider.Provider]string{provider.OpenAI: "sk-a"})

	_, _, err := Compare(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNotEnoughProviders)
}

func TestCompareDuplicateProviderDoesNotSatisfyMinimum(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Providers = []provider.Provider{provider.OpenAI, provider.OpenAI}
	opts.Resolver = resolverWith(map[provider.Provider]string{provider.OpenAI: "sk-a"})

	_, _, err := Compare(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNotEnoughProviders)
}

func TestCompareDeduplicatesExplicitProviders(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Providers = []provider.Provider{provider.OpenAI, provider.Google, provider.OpenAI}
	opts.Resolver = resolverWith(map[provider.Provider]string{
		provider.OpenAI: "sk-a",
		provider.Google: "sk-c",
	})

	entries, summary, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, provider.Google, entries[0].Provider)
	assert.Equal(t, provider.OpenAI, entries[1].Provider)

	assert.Equal(t, 2, summary.Succeeded)
	// The repeated provider runs once: 2 runs x 75 tokens, not 3.
	assert.Equal(t, 150, summary.TotalTokens)
}

func TestCompareImplicitSelectionSkipsUnresolvable(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Providers = nil
	opts.Resolver = resolverWith(map[provider.Provider]string{
		provider.OpenAI: "sk-a",
		provider.Google: "sk-c",
	})

	entries, _, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, provider.Google, entries[0].Provider)
	assert.Equal(t, provider.OpenAI, entries[1].Provider)
}

func TestCompareExplicitUnresolvableBecomesEntryError(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Resolver = resolverWith(map[provider.Provider]string{
		provider.OpenAI: "sk-a",
		provider.Google: "sk-c",
	})

	entries, summary, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, entry := range entries {
		if entry.Provider == provider.Anthropic {
			assert.True(t, entry.Failed())
		} else {
			assert.False(t, entry.Failed())
		}
	}
	assert.Equal(t, 2, summary.Succeeded)
}

func TestCompareSequentialCancelMovesToNextProvider(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Iterations = 2

	asked := 0
	opts.Confirm = func(string) bool {
		asked++
		return asked > 1 // decline only the first provider's second pass
	}

	entries, _, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Sequential order is by identifier, so anthropic is asked first.
	assert.True(t, entries[0].Cancelled)
	assert.Equal(t, "improve this [B]", entries[0].FinalText)

	assert.False(t, entries[1].Cancelled)
	assert.Equal(t, "improve this [C] [C]", entries[1].FinalText)
	assert.False(t, entries[2].Cancelled)
	assert.Equal(t, "improve this [A] [A]", entries[2].FinalText)
}

func TestSummaryReportsCancelledSeparately(t *testing.T) {
	opts := threeProviderOptions("")
	opts.Iterations = 2
	// Every provider completes pass 1 and then declines pass 2.
	opts.Confirm = func(string) bool { return false }

	entries, summary, err := Compare(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Cancelled)

	// Cancelled runs never dilute the completion averages.
	assert.Zero(t, summary.AvgDuration)
	assert.Zero(t, summary.AvgOutputChars)

	// Their spend is real and stays in the totals: 3 runs x 75 tokens.
	assert.Equal(t, 225, summary.TotalTokens)
}
