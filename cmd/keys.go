package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optiq-dev/optiq/internal/config"
	"github.com/optiq-dev/optiq/internal/credential"
	"github.com/optiq-dev/optiq/internal/provider"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage stored API keys",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider> <key>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE:  runKeysSet,
}

var keysShowCmd = &cobra.Command{
	Use:   "show <provider>",
	Short: "Show where a provider's key resolves from (masked)",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysShow,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a provider's stored API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDelete,
}

func init() {
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysShowCmd)
	keysCmd.AddCommand(keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	p, err := provider.Parse(args[0])
	if err != nil {
		return err
	}

	store := credential.FileStore{}
	if err := store.Set(p, args[1]); err != nil {
		return err
	}

	stored := credential.Credential{Value: args[1], Source: credential.SourceFile}
	fmt.Printf("Stored key for %s: %s\n", p, stored.Masked())
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	p, err := provider.Parse(args[0])
	if err != nil {
		return err
	}

	resolver := credential.NewResolver(credential.ResolverOptions{
		UseSecureStore: config.GetBool("credentials.use_keychain"),
	})
	cred := resolver.Resolve(p, "")
	if !cred.Resolved() {
		fmt.Printf("%s: no credential (set %s or run `optiq keys set %s <key>`)\n",
			p, credential.EnvVar(p), p)
		return nil
	}

	fmt.Printf("%s: %s (source: %s)\n", p, cred.Masked(), cred.Source)
	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	p, err := provider.Parse(args[0])
	if err != nil {
		return err
	}

	store := credential.FileStore{}
	if err := store.Delete(p); err != nil {
		return err
	}

	fmt.Printf("Removed stored key for %s\n", p)
	return nil
}
