package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/internal/builder"
	"github.com/dartmoon/prestashop-build-tools/internal/defs"
)

var buildCmd = &cobra.Command{
	Use:   "build-module",
	Short: "Package the module into a distributable zip",
	Long: `Stage the module into a clean tree and package it as <module>.zip.

Files listed in the exclusion file are left out, every directory gets an
index.php marker and source files get the license header. The module name
and the other defaults come from extra.prestashop-build-tools in
composer.json when the flags are not set.

Examples:
  pbt build-module
  pbt build-module -d ./mymodule -b ./dist -m mymodule
  pbt build-module --authoritative --license ./LICENSE-HEADER.txt`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("working-dir", "d", "", "Use the given directory as working directory (default: current directory)")
	buildCmd.Flags().StringP("output-dir", "b", "", "Directory that receives the artifact (default: working directory)")
	buildCmd.Flags().StringP("module-name", "m", "", "Name of the module being built (default: composer.json extra)")
	buildCmd.Flags().StringP("exclude", "e", "", "rsync exclude file (default: <working-dir>/excludes.txt, then bundled)")
	buildCmd.Flags().String("license", "", "License header file (default: <working-dir>/copyright.txt, then bundled)")
	buildCmd.Flags().BoolP("authoritative", "a", false, "Generate an authoritative classmap autoload before packaging")
	buildCmd.Flags().Bool("keep-staging", false, "Keep the staged module tree for inspection")
}

// buildConfig assembles the build configuration from flags and manifest.
func buildConfig(cmd *cobra.Command) (builder.Config, error) {
	workDir, err := workingDir(cmd)
	if err != nil {
		return builder.Config{}, err
	}
	name, err := manifestDefault(getStringFlag(cmd, "module-name"), workDir, defs.ExtraNameKey)
	if err != nil {
		return builder.Config{}, fmt.Errorf("module name: %w", err)
	}
	return builder.Config{
		WorkDir:       workDir,
		OutputDir:     getStringFlag(cmd, "output-dir"),
		ModuleName:    name,
		ExcludeFile:   getStringFlag(cmd, "exclude"),
		LicenseFile:   getStringFlag(cmd, "license"),
		Authoritative: getBoolFlag(cmd, "authoritative"),
		KeepStaging:   getBoolFlag(cmd, "keep-staging"),
	}, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	steps := deps.steps()
	b := builder.New(cfg,
		builder.WithRunner(deps.Runner),
		builder.WithReporter(steps),
		builder.WithLogger(deps.Logger.With("module", "builder")),
	)
	res, err := b.Build(cmd.Context())
	steps.Done()
	if err != nil {
		return fmt.Errorf("build module: %w", err)
	}

	details := []detail{
		{"Artifact", res.Artifact},
		{"Markers", fmt.Sprintf("%d index.php added", res.Markers)},
		{"Headers", fmt.Sprintf("%d of %d files updated", res.Headers.Updated, res.Headers.Scanned)},
		{"Elapsed", elapsed(res.Duration)},
	}
	if res.Staged != "" {
		details = append(details, detail{"Staging", res.Staged})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successCard("Module "+cfg.ModuleName+" built", details...))
	return nil
}
