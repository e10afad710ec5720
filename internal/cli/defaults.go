package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/manifest"
)

// workingDir returns the absolute --working-dir, defaulting to the process
// working directory.
func workingDir(cmd *cobra.Command) (string, error) {
	dir := getStringFlag(cmd, "working-dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return abs, nil
}

// manifestDefault returns flag when set, otherwise the value stored at key
// in <workDir>/composer.json. The manifest is only read when needed; a
// missing manifest is an error at that point.
func manifestDefault(flag, workDir, key string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	m, err := manifest.Read(filepath.Join(workDir, defs.ComposerJSON))
	if err != nil {
		return "", err
	}
	return m.GetString(key, ""), nil
}
