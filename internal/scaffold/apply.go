package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dartmoon/prestashop-build-tools/internal/fsutil"
)

// ApplyResult lists what Apply changed, as slash-separated paths relative to
// the working directory.
type ApplyResult struct {
	Rewritten []string
	Entry     string // New entry file name; empty when there was none to rename.
}

// Apply substitutes the metadata tokens in the target files and renames the
// entry file to <name>.php.
func Apply(workDir string, meta Metadata, targets Targets) (*ApplyResult, error) {
	if !fsutil.IsDir(workDir) {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirNotFound, workDir)
	}

	pairs := make([]string, 0, 2*len(meta.Replacements()))
	for token, value := range meta.Replacements() {
		pairs = append(pairs, token, value)
	}
	replacer := strings.NewReplacer(pairs...)

	paths, err := collectTargets(workDir, targets)
	if err != nil {
		return nil, err
	}

	res := &ApplyResult{}
	for _, rel := range paths {
		changed, err := rewrite(filepath.Join(workDir, filepath.FromSlash(rel)), replacer)
		if err != nil {
			return nil, err
		}
		if changed {
			res.Rewritten = append(res.Rewritten, rel)
		}
	}

	if targets.Entry != "" {
		entry := filepath.Join(workDir, filepath.FromSlash(targets.Entry))
		name := meta.Name + ".php"
		dst := filepath.Join(filepath.Dir(entry), name)
		if fsutil.Exists(entry) && entry != dst {
			if fsutil.Exists(dst) {
				return nil, fmt.Errorf("%w: %s", ErrEntryExists, name)
			}
			if err := os.Rename(entry, dst); err != nil {
				return nil, fmt.Errorf("rename entry file: %w", err)
			}
			res.Entry = name
		}
	}
	return res, nil
}

// collectTargets returns the well-known files that exist plus every
// token-bearing file below the declared directories, deduplicated and
// sorted.
func collectTargets(workDir string, targets Targets) ([]string, error) {
	seen := make(map[string]bool)

	for _, f := range targets.Files {
		rel := filepath.ToSlash(filepath.Clean(f))
		info, err := os.Stat(filepath.Join(workDir, filepath.FromSlash(rel)))
		if err == nil && info.Mode().IsRegular() {
			seen[rel] = true
		}
	}

	fsys := os.DirFS(workDir)
	for _, pattern := range targets.Directories {
		dirs, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("directory pattern %q: %w", pattern, err)
		}
		for _, dir := range dirs {
			err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.Type().IsRegular() || seen[path] {
					return nil
				}
				ok, err := hasToken(fsys, path)
				if err != nil {
					return err
				}
				if ok {
					seen[path] = true
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", dir, err)
			}
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func hasToken(fsys fs.FS, path string) (bool, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return false, err
	}
	content := string(data)
	for k := range (Metadata{}).Values() {
		if strings.Contains(content, Token(k)) {
			return true, nil
		}
	}
	return false, nil
}

// rewrite replaces tokens in one file. The new content is written to a
// temporary file in the same directory and renamed over the original.
func rewrite(path string, r *strings.Replacer) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", path, err)
	}
	out := r.Replace(string(data))
	if out == string(data) {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pbt-*")
	if err != nil {
		return false, fmt.Errorf("rewrite %q: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(out); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("rewrite %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("rewrite %q: %w", path, err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("rewrite %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, fmt.Errorf("rewrite %q: %w", path, err)
	}
	return true, nil
}
