package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/optiq-dev/optiq/internal/catalog"
	"github.com/optiq-dev/optiq/internal/config"
	"github.com/optiq-dev/optiq/internal/cost"
	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/engine"
	"github.com/optiq-dev/optiq/internal/provider"
	"github.com/optiq-dev/optiq/internal/style"
)

var (
	optimizeProvider   string
	optimizeModel      string
	optimizeIterations int
	optimizeStyle      string
	optimizeAPIKey     string
	optimizeYes        bool
	optimizeEstimate   bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <prompt>",
	Short: "Refine a prompt through one provider",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeProvider, "provider", "p", "", "Provider (openai, anthropic, google, xai, deepseek)")
	optimizeCmd.Flags().StringVarP(&optimizeModel, "model", "m", "", "Model override (default: provider default)")
	optimizeCmd.Flags().IntVarP(&optimizeIterations, "iterations", "i", 1, "Refinement passes (1-5)")
	optimizeCmd.Flags().StringVarP(&optimizeStyle, "style", "s", "", "Refinement style (balanced, concise, detailed, technical, creative)")
	optimizeCmd.Flags().StringVar(&optimizeAPIKey, "api-key", "", "Explicit API key for this invocation")
	optimizeCmd.Flags().BoolVarP(&optimizeYes, "yes", "y", false, "Skip confirmation prompts")
	optimizeCmd.Flags().BoolVar(&optimizeEstimate, "estimate", false, "Print the cost estimate and exit")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("prompt is required")
	}

	prov, model, err := resolveProviderAndModel(cmd, optimizeProvider, optimizeModel)
	if err != nil {
		return err
	}

	iterations := optimizeIterations
	if !cmd.Flags().Changed("iterations") {
		if value, ok := config.GetConfig("defaults.iterations"); ok {
			if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				iterations = parsed
			}
		}
	}
	if iterations < engine.MinIterations || iterations > engine.MaxIterations {
		return fmt.Errorf("%w: got %d", engine.ErrIterationsOutOfRange, iterations)
	}

	styleValue := optimizeStyle
	if !cmd.Flags().Changed("style") {
		if value, ok := config.GetConfig("defaults.style"); ok {
			styleValue = value
		}
	}
	selectedStyle, err := style.Parse(styleValue)
	if err != nil {
		return err
	}

	resolver := credential.NewResolver(credential.ResolverOptions{
		UseSecureStore: config.GetBool("credentials.use_keychain"),
		Logger:         logger,
	})
	cred := resolver.Resolve(prov, optimizeAPIKey)
	if !cred.Resolved() {
		return fmt.Errorf("no credential for %s: set %s or run `optiq keys set %s <key>`",
			prov, credential.EnvVar(prov), prov)
	}

	estimate := cost.EstimateRun(engine.BuildSystemPrompt(selectedStyle), prompt, model, iterations)
	fmt.Fprintf(os.Stderr, "Estimated: %d input + %d output tokens, $%.6f (%s, %d pass(es))\n",
		estimate.InputTokens, estimate.OutputTokens, estimate.USD, model, iterations)
	if optimizeEstimate {
		return nil
	}

	interactive := stdinIsInteractive() && !optimizeYes
	if interactive && config.GetBool("confirm.before_run") {
		if !askYesNo("Proceed?") {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
	}

	var confirm engine.ConfirmFunc
	if iterations > 1 && interactive && config.GetBool("confirm.per_iteration") {
		confirm = askYesNo
	}

	result, runErr := engine.Run(context.Background(), engine.RunOptions{
		Provider:   prov,
		Model:      model,
		Prompt:     prompt,
		Iterations: iterations,
		Style:      selectedStyle,
		Credential: cred,
		Confirm:    confirm,
		Logger:     logger,
	})

	if len(result.Passes) > 0 {
		fmt.Println(result.FinalText())
	}
	printRunStats(result, estimate, prov, model, cred)

	if runErr != nil {
		if len(result.Passes) > 0 {
			return fmt.Errorf("run aborted after %d completed pass(es): %w", len(result.Passes), runErr)
		}
		return runErr
	}
	if result.Cancelled {
		fmt.Fprintf(os.Stderr, "Cancelled after %d pass(es).\n", len(result.Passes))
	}
	return nil
}

func printRunStats(result engine.RunResult, estimate cost.Estimate, prov provider.Provider, model string, cred credential.Credential) {
	if len(result.Passes) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nProvider: %s  Model: %s  Key: %s (%s)\n",
		prov, model, cred.Masked(), cred.Source)
	fmt.Fprintf(os.Stderr, "Tokens: %d in / %d out  Cost: $%.6f  Duration: %s\n",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.CostUSD, result.Duration.Round(time.Millisecond))
	if ratio := cost.AccuracyRatio(estimate.USD, result.CostUSD); ratio > 0 {
		fmt.Fprintf(os.Stderr, "Estimate accuracy: %.1f%%\n", ratio)
	}
}

// resolveProviderAndModel applies the flag/config/catalog precedence and
// rejects provider/model mismatches before any network call.
func resolveProviderAndModel(cmd *cobra.Command, providerFlag, modelFlag string) (provider.Provider, string, error) {
	providerValue := strings.TrimSpace(providerFlag)
	if providerValue == "" {
		if value, ok := config.GetConfig("defaults.provider"); ok {
			providerValue = strings.TrimSpace(value)
		}
	}

	model := strings.TrimSpace(modelFlag)
	if model == "" && providerValue == "" {
		if value, ok := config.GetConfig("defaults.model"); ok {
			model = strings.TrimSpace(value)
		}
	}

	switch {
	case providerValue == "" && model == "":
		return "", "", errors.New("provider is required: pass --provider or set defaults.provider")
	case providerValue == "":
		// Model given alone; its owner comes from the catalog, never
		// from guessing at the name.
		owner, ok := catalog.LookupProvider(model)
		if !ok {
			return "", "", fmt.Errorf("unknown model: %q", model)
		}
		return owner, model, nil
	}

	prov, err := provider.Parse(providerValue)
	if err != nil {
		return "", "", err
	}

	if model == "" {
		return prov, catalog.DefaultModel(prov), nil
	}

	owner, ok := catalog.LookupProvider(model)
	if !ok {
		return "", "", fmt.Errorf("unknown model: %q", model)
	}
	if owner != prov {
		return "", "", fmt.Errorf("model %q belongs to %s, not %s", model, owner, prov)
	}
	return prov, model, nil
}
