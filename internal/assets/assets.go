// Package assets bundles the default support files (exclusion list, license
// header, index.php marker, php-scoper config) and resolves which copy a
// pipeline should use.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed files
var embedded embed.FS

// ErrAssetNotFound indicates an explicitly requested asset file does not exist
// or a bundled asset name is unknown.
var ErrAssetNotFound = errors.New("assets: file not found")

// Source describes where a resolved asset lives.
type Source struct {
	Name     string // Bundled asset name, e.g. "excludes.txt".
	Path     string // Filesystem path; empty for bundled assets not yet materialized.
	Embedded bool   // True when the bundled default is used.
}

// FS returns the bundled assets rooted at the asset directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(fmt.Sprintf("assets: embedded tree: %v", err))
	}
	return sub
}

// Read returns the content of a bundled asset.
func Read(name string) ([]byte, error) {
	data, err := fs.ReadFile(FS(), name)
	if err != nil {
		return nil, fmt.Errorf("%w: bundled %s", ErrAssetNotFound, name)
	}
	return data, nil
}

// Resolve picks the asset to use: the explicit flag value, then
// <workDir>/<name>, then the bundled default. An explicit path that does not
// exist is an error.
func Resolve(flagValue, workDir, name string) (Source, error) {
	if flagValue != "" {
		if !isFile(flagValue) {
			return Source{}, fmt.Errorf("%w: %s", ErrAssetNotFound, flagValue)
		}
		return Source{Name: name, Path: flagValue}, nil
	}

	override := filepath.Join(workDir, name)
	if isFile(override) {
		return Source{Name: name, Path: override}, nil
	}

	if _, err := fs.Stat(FS(), name); err != nil {
		return Source{}, fmt.Errorf("%w: bundled %s", ErrAssetNotFound, name)
	}
	return Source{Name: name, Embedded: true}, nil
}

// Content returns the bytes of a resolved asset.
func (s Source) Content() ([]byte, error) {
	if s.Embedded && s.Path == "" {
		return Read(s.Name)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, nil
}

// Materialize ensures the asset has a filesystem path, writing bundled
// content into dir when needed. External tools that take a file argument
// use the returned path.
func (s Source) Materialize(dir string) (string, error) {
	if !s.Embedded || s.Path != "" {
		return s.Path, nil
	}
	data, err := Read(s.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("materialize mkdir %q: %w", dir, err)
	}
	path := filepath.Join(dir, s.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("materialize %q: %w", path, err)
	}
	return path, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
