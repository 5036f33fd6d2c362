package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/optiq-dev/optiq/internal/catalog"
	"github.com/optiq-dev/optiq/internal/comparison"
	"github.com/optiq-dev/optiq/internal/config"
	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/engine"
	"github.com/optiq-dev/optiq/internal/provider"
	"github.com/optiq-dev/optiq/internal/style"
)

var (
	compareProviders  string
	compareModels     []string
	compareIterations int
	compareStyle      string
	compareYes        bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <prompt>",
	Short: "Run one prompt against multiple providers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareProviders, "providers", "", "Comma-separated provider subset (default: all with credentials)")
	compareCmd.Flags().StringArrayVar(&compareModels, "models", nil, "Per-provider model override, e.g. openai=gpt-4o-mini (repeatable)")
	compareCmd.Flags().IntVarP(&compareIterations, "iterations", "i", 1, "Refinement passes per provider (1-5)")
	compareCmd.Flags().StringVarP(&compareStyle, "style", "s", "", "Refinement style")
	compareCmd.Flags().BoolVarP(&compareYes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("prompt is required")
	}

	if compareIterations < engine.MinIterations || compareIterations > engine.MaxIterations {
		return fmt.Errorf("%w: got %d", engine.ErrIterationsOutOfRange, compareIterations)
	}

	selectedStyle, err := style.Parse(compareStyle)
	if err != nil {
		return err
	}

	providers, err := parseProviderList(compareProviders)
	if err != nil {
		return err
	}

	overrides, err := parseModelOverrides(compareModels)
	if err != nil {
		return err
	}

	resolver := credential.NewResolver(credential.ResolverOptions{
		UseSecureStore: config.GetBool("credentials.use_keychain"),
		Logger:         logger,
	})

	var confirm engine.ConfirmFunc
	if compareIterations > 1 && stdinIsInteractive() && !compareYes && config.GetBool("confirm.per_iteration") {
		confirm = askYesNo
	}

	entries, summary, err := comparison.Compare(context.Background(), comparison.Options{
		Prompt:         prompt,
		Providers:      providers,
		ModelOverrides: overrides,
		Iterations:     compareIterations,
		Style:          selectedStyle,
		Resolver:       resolver,
		Confirm:        confirm,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	printEntries(entries)
	printSummary(summary)
	return nil
}

func parseProviderList(value string) ([]provider.Provider, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	var providers []provider.Provider
	seen := map[provider.Provider]bool{}
	for _, name := range strings.Split(trimmed, ",") {
		p, err := provider.Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate provider: %s", p)
		}
		seen[p] = true
		providers = append(providers, p)
	}
	return providers, nil
}

func parseModelOverrides(pairs []string) (map[provider.Provider]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	overrides := make(map[provider.Provider]string, len(pairs))
	for _, pair := range pairs {
		name, model, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(model) == "" {
			return nil, fmt.Errorf("invalid model override %q: expected provider=model", pair)
		}
		p, err := provider.Parse(name)
		if err != nil {
			return nil, err
		}
		model = strings.TrimSpace(model)
		owner, ok := catalog.LookupProvider(model)
		if !ok {
			return nil, fmt.Errorf("unknown model: %q", model)
		}
		if owner != p {
			return nil, fmt.Errorf("model %q belongs to %s, not %s", model, owner, p)
		}
		overrides[p] = model
	}
	return overrides, nil
}

func printEntries(entries []comparison.Entry) {
	for _, entry := range entries {
		fmt.Printf("=== %s (%s) ===\n", entry.Provider, entry.Model)
		if entry.Failed() {
			fmt.Printf("error: %s\n\n", entry.Err)
			continue
		}
		fmt.Println(entry.FinalText)
		fmt.Println()
	}
}

func printSummary(summary comparison.Summary) {
	writer := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "succeeded\t%d\n", summary.Succeeded)
	fmt.Fprintf(writer, "failed\t%d\n", summary.Failed)
	fmt.Fprintf(writer, "cancelled\t%d\n", summary.Cancelled)
	fmt.Fprintf(writer, "avg duration\t%s\n", summary.AvgDuration.Round(time.Millisecond))
	fmt.Fprintf(writer, "avg output chars\t%d\n", summary.AvgOutputChars)
	fmt.Fprintf(writer, "total tokens\t%d\n", summary.TotalTokens)
	fmt.Fprintf(writer, "total cost\t$%.6f\n", summary.TotalCostUSD)
	_ = writer.Flush()
}
