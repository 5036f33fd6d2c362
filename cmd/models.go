package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/optiq-dev/optiq/internal/catalog"
	"github.com/optiq-dev/optiq/internal/provider"
	_ "github.com/optiq-dev/optiq/internal/provider/anthropic"
	_ "github.com/optiq-dev/optiq/internal/provider/deepseek"
	_ "github.com/optiq-dev/optiq/internal/provider/google"
	_ "github.com/optiq-dev/optiq/internal/provider/openai"
	_ "github.com/optiq-dev/optiq/internal/provider/xai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List providers, models, and pricing",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "PROVIDER\tMODEL\tIN $/1M\tOUT $/1M\tDEFAULT")
	fmt.Fprintln(writer, "--------\t-----\t-------\t--------\t-------")

	for _, p := range provider.All() {
		defaultModel := catalog.DefaultModel(p)
		for _, model := range catalog.Models(p) {
			pricing, _ := catalog.LookupPricing(model)
			marker := ""
			if model == defaultModel {
				marker = "*"
			}
			fmt.Fprintf(writer, "%s\t%s\t%.2f\t%.2f\t%s\n",
				p, model, pricing.InputPerMillion, pricing.OutputPerMillion, marker)
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Println("")
	fmt.Println("Usage: optiq optimize <prompt> --provider <name> [--model <model>]")
	return nil
}
