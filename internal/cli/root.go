package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "pbt",
	Short: "Build tools for PrestaShop modules",
	Long: `pbt packages PrestaShop modules for distribution.

It stages a module into a clean tree, stamps license headers, adds the
index.php markers PrestaShop expects, prefixes vendor namespaces with
php-scoper, and scaffolds new modules from a template.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupDependencies,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.GetFullVersion()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pbt %s\n", version.GetVersion()))
	rootCmd.PersistentFlags().Bool("verbose", false, "Log every pipeline step and tool invocation")
}

// setupDependencies wires dependencies once the global flags are parsed.
// Dependencies installed beforehand are kept.
func setupDependencies(cmd *cobra.Command, _ []string) error {
	if deps != nil {
		return nil
	}
	InitDependencies(getBoolFlag(cmd, "verbose"))
	return nil
}

// getStringFlag retrieves a string flag value from the command.
func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return val
}

// getBoolFlag retrieves a bool flag value from the command.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return val
}
