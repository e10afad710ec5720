package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "pbt %s\n", version.GetFullVersion())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
