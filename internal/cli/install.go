package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/internal/cli/wizard"
	"github.com/dartmoon/prestashop-build-tools/internal/scaffold"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Turn the module template in the current directory into a module",
	Long: `Ask for the module metadata, replace the ___KEY___ placeholders in the
template files, rename the entry file to <name>.php and refresh the
composer dependencies.

Always operates on the current directory. Without a terminal the answers
are read one per line from stdin; an empty line keeps the default.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// prompter returns the configured prompter, the huh wizard on a terminal,
// or the line prompter otherwise.
func (d *Dependencies) prompter() scaffold.Prompter {
	if d.Prompter != nil {
		return d.Prompter
	}
	if d.Headless.IsHeadless() {
		return wizard.NewLinePrompter(d.In, d.Out)
	}
	return wizard.NewPrompter()
}

func runInstall(cmd *cobra.Command, _ []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	s := scaffold.New(scaffold.Config{WorkDir: workDir},
		scaffold.WithPrompter(deps.prompter()),
		scaffold.WithRunner(deps.Runner),
		scaffold.WithLogger(deps.Logger.With("module", "scaffold")),
	)
	res, err := s.Run(cmd.Context())
	out := cmd.OutOrStdout()
	if errors.Is(err, wizard.ErrCancelled) {
		_, _ = fmt.Fprintln(out, warnLine("Installation cancelled; no files were changed."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	m := res.Metadata
	_, _ = fmt.Fprintln(out, successCard("Module "+m.DisplayName+" installed",
		detail{"Name", m.Name},
		detail{"Version", m.Version},
		detail{"Class", m.ClassName},
		detail{"Namespace", m.Namespace},
		detail{"Entry", res.Applied.Entry},
		detail{"Rewritten", fmt.Sprintf("%d files", len(res.Applied.Rewritten))},
	))
	return nil
}
