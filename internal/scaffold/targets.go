package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dartmoon/prestashop-build-tools/internal/defs"
)

// Targets lists the template files rewritten by Apply.
type Targets struct {
	// Files are always rewritten when present.
	Files []string `yaml:"files"`
	// Directories are doublestar patterns; files below matching directories
	// are rewritten when they contain at least one token.
	Directories []string `yaml:"directories"`
	// Entry is renamed to <name>.php after substitution.
	Entry string `yaml:"entry"`
}

// DefaultTargets returns the file set of the module template.
func DefaultTargets() Targets {
	return Targets{
		Files: []string{
			defs.ComposerJSON,
			"package.json",
			"main.php",
			"config.xml",
			"README.md",
		},
		Directories: []string{
			"src",
			"config",
			"controllers",
			"views",
			"upgrade",
			"translations",
		},
		Entry: "main.php",
	}
}

// LoadTargets reads <workDir>/pbt-scaffold.yaml. Lists or keys the file
// leaves empty keep their defaults; a missing file yields DefaultTargets.
func LoadTargets(workDir string) (Targets, error) {
	t := DefaultTargets()

	data, err := os.ReadFile(filepath.Join(workDir, defs.ScaffoldYAML))
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return Targets{}, fmt.Errorf("read %s: %w", defs.ScaffoldYAML, err)
	}

	var override Targets
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Targets{}, fmt.Errorf("%w: %v", ErrInvalidTargets, err)
	}
	if len(override.Files) > 0 {
		t.Files = override.Files
	}
	if len(override.Directories) > 0 {
		t.Directories = override.Directories
	}
	if override.Entry != "" {
		t.Entry = override.Entry
	}
	return t, nil
}
