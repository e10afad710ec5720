package prefixer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartmoon/prestashop-build-tools/internal/assets"
	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
)

// fakeRunner records invocations. php-scoper is emulated by copying the
// input tree and prefixing every namespace declaration.
type fakeRunner struct {
	calls  []shell.Command
	fail   map[string]error
	scoper func(args []string) error
}

func (f *fakeRunner) Run(_ context.Context, cmd shell.Command) (*shell.Result, error) {
	f.calls = append(f.calls, cmd)
	if err, ok := f.fail[cmd.Name]; ok {
		return nil, err
	}
	if cmd.Name == "php-scoper" {
		scoper := f.scoper
		if scoper == nil {
			scoper = fakeScoper
		}
		return &shell.Result{}, scoper(cmd.Args)
	}
	return &shell.Result{}, nil
}

func (f *fakeRunner) call(name string) (shell.Command, bool) {
	for _, c := range f.calls {
		if c.Name == name {
			return c, true
		}
	}
	return shell.Command{}, false
}

func flagValue(args []string, name string) string {
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, name+"="); ok {
			return v
		}
	}
	return ""
}

var namespaceDecl = regexp.MustCompile(`(?m)^namespace\s+`)

func fakeScoper(args []string) error {
	out := flagValue(args, "--output-dir")
	prefix := flagValue(args, "--prefix")
	in := args[len(args)-1]

	return filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(in, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, ".php") {
			data = namespaceDecl.ReplaceAllLiteral(data, []byte("namespace "+prefix+`\`))
		}
		target := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const (
	libSource    = "<?php\nnamespace Acme\\Lib;\n\nclass Lib {}\n"
	loggerSource = "<?php\nnamespace Monolog;\n\nclass Logger {}\n"
)

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "composer.json"), `{"name":"acme/mymodule"}`)
	writeFile(t, filepath.Join(dir, "vendor", "autoload.php"), "<?php\nreturn 1;\n")
	writeFile(t, filepath.Join(dir, "vendor", "acme", "lib", "src", "Lib.php"), libSource)
	writeFile(t, filepath.Join(dir, "vendor", "monolog", "monolog", "src", "Logger.php"), loggerSource)
	return dir
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPrefix_SwapsPackages(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	runner := &fakeRunner{}

	res, err := New(Config{WorkDir: workDir, Prefix: `MyPrefix`, MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "MyPrefix", res.Prefix)
	assert.Equal(t, []string{"acme/lib", "monolog/monolog"}, res.Packages)

	vendor := filepath.Join(workDir, "vendor")
	assert.Equal(t, "<?php\nnamespace MyPrefix\\Acme\\Lib;\n\nclass Lib {}\n", read(t, filepath.Join(vendor, "acme", "lib", "src", "Lib.php")))
	assert.Equal(t, "<?php\nnamespace MyPrefix\\Monolog;\n\nclass Logger {}\n", read(t, filepath.Join(vendor, "monolog", "monolog", "src", "Logger.php")))
	assert.Equal(t, "<?php\nreturn 1;\n", read(t, filepath.Join(vendor, "autoload.php")))

	assert.NoFileExists(t, filepath.Join(vendor, defs.BuildToolsTxt))
	assert.NoFileExists(t, filepath.Join(workDir, defs.VendorPrefixedDir, defs.BuildToolsTxt))
	assert.NoDirExists(t, filepath.Join(workDir, defs.StagingDir, defs.VendorBackupDir))
	assert.NoFileExists(t, filepath.Join(workDir, defs.LockFile))

	scoper, ok := runner.call("php-scoper")
	require.True(t, ok)
	assert.Equal(t, "add-prefix", scoper.Args[0])
	assert.Contains(t, scoper.Args, "--prefix=MyPrefix")
	assert.Contains(t, scoper.Args, "--force")
	assert.Contains(t, scoper.Args, "--output-dir="+filepath.Join(workDir, defs.VendorPrefixedDir))
	assert.Equal(t, vendor, scoper.Args[len(scoper.Args)-1])
	assert.FileExists(t, flagValue(scoper.Args, "--config"), "bundled config materialized")

	composer, ok := runner.call("composer")
	require.True(t, ok)
	assert.Equal(t, []string{"dump-autoload", "--working-dir=" + workDir, "--quiet"}, composer.Args)
}

func TestPrefix_NoOriginalNamespacesRemain(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	_, err := New(Config{WorkDir: workDir, Prefix: `Acme\MyModule\Vendor`, MoveVendor: true}, WithRunner(&fakeRunner{})).
		Prefix(context.Background())
	require.NoError(t, err)

	pkgs, err := Packages(filepath.Join(workDir, "vendor"))
	require.NoError(t, err)
	require.NotEmpty(t, pkgs)

	for _, pkg := range pkgs {
		root := filepath.Join(workDir, "vendor", filepath.FromSlash(pkg))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			require.NoError(t, err)
			if d.IsDir() || !strings.HasSuffix(path, ".php") {
				return nil
			}
			for _, line := range strings.Split(read(t, path), "\n") {
				if strings.HasPrefix(line, "namespace ") {
					assert.True(t, strings.HasPrefix(line, `namespace Acme\MyModule\Vendor\`), "%s: %s", path, line)
				}
			}
			return nil
		})
		require.NoError(t, err)
	}
}

func TestPrefix_WithoutMoveVendor(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	prefixed := filepath.Join(t.TempDir(), "out")

	_, err := New(Config{WorkDir: workDir, PrefixedDir: prefixed, Prefix: "MyPrefix"}, WithRunner(&fakeRunner{})).
		Prefix(context.Background())
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(workDir, "vendor", "acme", "lib"))
	assert.NoDirExists(t, filepath.Join(workDir, "vendor", "monolog", "monolog"))
	assert.FileExists(t, filepath.Join(workDir, "vendor", "autoload.php"))
	assert.Contains(t, read(t, filepath.Join(prefixed, "acme", "lib", "src", "Lib.php")), `namespace MyPrefix\Acme\Lib;`)
}

func TestPrefix_ClearsPreviousOutput(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	stale := filepath.Join(workDir, defs.VendorPrefixedDir, "old", "package", "Stale.php")
	writeFile(t, stale, "<?php\n")

	res, err := New(Config{WorkDir: workDir, Prefix: "P", MoveVendor: true}, WithRunner(&fakeRunner{})).
		Prefix(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.NotContains(t, res.Packages, "old/package")
	assert.NoDirExists(t, filepath.Join(workDir, "vendor", "old"))
}

func TestPrefix_EmptyOutputLeavesVendorUntouched(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	runner := &fakeRunner{scoper: func([]string) error { return nil }}

	_, err := New(Config{WorkDir: workDir, Prefix: "MyPrefix", MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.ErrorIs(t, err, ErrNoPrefixedPackages)

	assert.Equal(t, libSource, read(t, filepath.Join(workDir, "vendor", "acme", "lib", "src", "Lib.php")))
	assert.NoFileExists(t, filepath.Join(workDir, "vendor", defs.BuildToolsTxt))
	_, called := runner.call("composer")
	assert.False(t, called)
}

func TestPrefix_ScoperFailure(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	runner := &fakeRunner{fail: map[string]error{
		"php-scoper": &shell.CommandError{Command: shell.Command{Name: "php-scoper"}, ExitCode: 1, Stderr: "invalid config"},
	}}

	_, err := New(Config{WorkDir: workDir, Prefix: "MyPrefix", MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.Error(t, err)

	var cmdErr *shell.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "invalid config", cmdErr.Stderr)
	assert.Equal(t, libSource, read(t, filepath.Join(workDir, "vendor", "acme", "lib", "src", "Lib.php")))
	assert.NoFileExists(t, filepath.Join(workDir, "vendor", defs.BuildToolsTxt))
}

func TestPrefix_AutoloadFailureRestoresVendor(t *testing.T) {
	t.Parallel()

	for _, move := range []bool{true, false} {
		workDir := newProject(t)
		runner := &fakeRunner{fail: map[string]error{
			"composer": &shell.CommandError{Command: shell.Command{Name: "composer"}, ExitCode: 255},
		}}

		_, err := New(Config{WorkDir: workDir, Prefix: "MyPrefix", MoveVendor: move}, WithRunner(runner)).
			Prefix(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dump autoload")

		assert.Equal(t, libSource, read(t, filepath.Join(workDir, "vendor", "acme", "lib", "src", "Lib.php")), "move=%v", move)
		assert.Equal(t, loggerSource, read(t, filepath.Join(workDir, "vendor", "monolog", "monolog", "src", "Logger.php")), "move=%v", move)
		assert.NoDirExists(t, filepath.Join(workDir, defs.StagingDir, defs.VendorBackupDir))
	}
}

func TestPrefix_RefusesPendingVendorBackup(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	original := filepath.Join(workDir, defs.StagingDir, defs.VendorBackupDir, "acme", "lib", "src", "Lib.php")
	writeFile(t, original, libSource)

	runner := &fakeRunner{}
	_, err := New(Config{WorkDir: workDir, Prefix: "MyPrefix", MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.ErrorIs(t, err, ErrVendorBackupPending)
	assert.Empty(t, runner.calls)
	assert.Equal(t, libSource, read(t, original))
}

func TestPrefix_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"missing working directory", func(c *Config) { c.WorkDir = filepath.Join(c.WorkDir, "nope") }, ErrWorkDirNotFound},
		{"missing prefix", func(c *Config) { c.Prefix = "" }, ErrPrefixRequired},
		{"backslash only prefix", func(c *Config) { c.Prefix = `\` }, ErrPrefixRequired},
		{"invalid prefix", func(c *Config) { c.Prefix = "Acme Vendor" }, ErrInvalidPrefix},
		{"missing vendor", func(c *Config) { c.VendorDir = filepath.Join(c.WorkDir, "lib") }, ErrVendorNotFound},
		{"missing config", func(c *Config) { c.ConfigFile = filepath.Join(c.WorkDir, "none.php") }, assets.ErrAssetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{WorkDir: newProject(t), Prefix: "MyPrefix", MoveVendor: true}
			tt.mutate(&cfg)

			runner := &fakeRunner{}
			_, err := New(cfg, WithRunner(runner)).Prefix(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, runner.calls)
		})
	}
}

func TestPrefix_NormalizesPrefix(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	res, err := New(Config{WorkDir: newProject(t), Prefix: ` \Acme\Vendor\ `, MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `Acme\Vendor`, res.Prefix)

	scoper, _ := runner.call("php-scoper")
	assert.Contains(t, scoper.Args, `--prefix=Acme\Vendor`)
}

func TestPrefix_WorkDirScoperConfig(t *testing.T) {
	t.Parallel()

	workDir := newProject(t)
	custom := filepath.Join(workDir, defs.ScoperConfig)
	writeFile(t, custom, "<?php return [];\n")

	runner := &fakeRunner{}
	_, err := New(Config{WorkDir: workDir, Prefix: "P", MoveVendor: true}, WithRunner(runner)).
		Prefix(context.Background())
	require.NoError(t, err)

	scoper, _ := runner.call("php-scoper")
	assert.Equal(t, custom, flagValue(scoper.Args, "--config"))
}

func TestPackages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "two", "x.php"), "x")
	writeFile(t, filepath.Join(dir, "a", "one", "deep", "y.php"), "y")
	writeFile(t, filepath.Join(dir, "a", "file.php"), "z")
	writeFile(t, filepath.Join(dir, "top.txt"), "")

	got, err := Packages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "b/two"}, got)

	none, err := Packages(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
