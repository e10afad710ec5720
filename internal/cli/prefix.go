package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/prefixer"
)

var prefixCmd = &cobra.Command{
	Use:   "prefix-vendor",
	Short: "Prefix vendor namespaces with php-scoper",
	Long: `Run php-scoper over the vendor directory and swap every prefixed
vendor_name/package_name package into place, then dump the autoloader.

The prefix defaults to extra.prestashop-build-tools.prefix in composer.json.
If any step after the swap fails, the original packages are restored.

Examples:
  pbt prefix-vendor -p 'Acme\MyModule\Vendor'
  pbt prefix-vendor -d ./mymodule -c ./scoper.inc.php
  pbt prefix-vendor --move-vendor=false`,
	Args: cobra.NoArgs,
	RunE: runPrefix,
}

func init() {
	rootCmd.AddCommand(prefixCmd)

	prefixCmd.Flags().StringP("working-dir", "d", "", "Use the given directory as working directory (default: current directory)")
	prefixCmd.Flags().StringP("vendor-dir", "i", "", "Vendor directory to prefix (default: <working-dir>/vendor)")
	prefixCmd.Flags().StringP("vendor-prefixed-dir", "o", "", "Output for the prefixed vendors (default: <working-dir>/vendor-prefixed)")
	prefixCmd.Flags().StringP("config", "c", "", "php-scoper config file (default: <working-dir>/scoper.inc.php, then bundled)")
	prefixCmd.Flags().StringP("prefix", "p", "", "Namespace prefix (default: composer.json extra)")
	prefixCmd.Flags().Bool("move-vendor", true, "Copy prefixed packages back into the vendor directory")
}

// prefixConfig assembles the prefix configuration from flags and manifest.
func prefixConfig(cmd *cobra.Command) (prefixer.Config, error) {
	workDir, err := workingDir(cmd)
	if err != nil {
		return prefixer.Config{}, err
	}
	prefix, err := manifestDefault(getStringFlag(cmd, "prefix"), workDir, defs.ExtraPrefixKey)
	if err != nil {
		return prefixer.Config{}, fmt.Errorf("prefix: %w", err)
	}
	return prefixer.Config{
		WorkDir:     workDir,
		VendorDir:   getStringFlag(cmd, "vendor-dir"),
		PrefixedDir: getStringFlag(cmd, "vendor-prefixed-dir"),
		ConfigFile:  getStringFlag(cmd, "config"),
		Prefix:      prefix,
		MoveVendor:  getBoolFlag(cmd, "move-vendor"),
	}, nil
}

func runPrefix(cmd *cobra.Command, _ []string) error {
	cfg, err := prefixConfig(cmd)
	if err != nil {
		return err
	}

	steps := deps.steps()
	p := prefixer.New(cfg,
		prefixer.WithRunner(deps.Runner),
		prefixer.WithReporter(steps),
		prefixer.WithLogger(deps.Logger.With("module", "prefixer")),
	)
	res, err := p.Prefix(cmd.Context())
	steps.Done()
	if err != nil {
		return fmt.Errorf("prefix vendor: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, successCard("Vendor prefixed",
		detail{"Prefix", res.Prefix},
		detail{"Packages", fmt.Sprintf("%d", len(res.Packages))},
		detail{"Elapsed", elapsed(res.Duration)},
	))
	if len(res.Packages) > 0 {
		_, _ = fmt.Fprintln(out, cliMuted.Render("  "+strings.Join(res.Packages, "\n  ")))
	}
	if !cfg.MoveVendor {
		_, _ = fmt.Fprintln(out, warnLine("Prefixed packages were left in the output directory; point the autoloader there."))
	}
	return nil
}
