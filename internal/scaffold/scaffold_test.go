package scaffold

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
)

// scriptedPrompter answers from a per-key queue; an exhausted queue answers
// blank so the default applies.
type scriptedPrompter struct {
	answers map[Key][]string
	asked   []Question
}

func (p *scriptedPrompter) Ask(_ context.Context, q Question) (string, error) {
	p.asked = append(p.asked, q)
	queue := p.answers[q.Key]
	if len(queue) == 0 {
		return "", nil
	}
	p.answers[q.Key] = queue[1:]
	return queue[0], nil
}

func (p *scriptedPrompter) count(k Key) int {
	n := 0
	for _, q := range p.asked {
		if q.Key == k {
			n++
		}
	}
	return n
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCollect_Defaults(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answers: map[Key][]string{KeyAuthor: {"Acme"}}}
	m, err := Collect(context.Background(), DefaultFields("/work/my-module"), p, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, Metadata{
		Name:         "my-module",
		DisplayName:  "My Module",
		Version:      "1.0.0",
		Description:  "",
		Author:       "Acme",
		ClassName:    "MyModule",
		Namespace:    `Acme\MyModule`,
		VendorPrefix: `Acme\MyModule\Vendor`,
		Year:         2026,
	}, m)
}

func TestCollect_RepromptsUntilValid(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answers: map[Key][]string{
		KeyName:        {"bad name!", "my-module_1"},
		KeyDisplayName: {"My Module 1", "My Module"},
		KeyVersion:     {"0.0.0", "1.2.3"},
		KeyAuthor:      {"", "  ", "Acme"},
		KeyNamespace:   {`Acme\\Bad`, `Acme\MyModule`},
	}}
	m, err := Collect(context.Background(), DefaultFields("/work/x"), p, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "my-module_1", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "Acme", m.Author)
	assert.Equal(t, `Acme\MyModule`, m.Namespace)
	assert.Equal(t, `Acme\MyModule\Vendor`, m.VendorPrefix)

	assert.Equal(t, 2, p.count(KeyName))
	assert.Equal(t, 2, p.count(KeyDisplayName))
	assert.Equal(t, 2, p.count(KeyVersion))
	assert.Equal(t, 3, p.count(KeyAuthor))
	assert.Equal(t, 1, p.count(KeyDescription))
}

func TestCollect_DefaultsFollowAnswers(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answers: map[Key][]string{
		KeyName:   {"shipping"},
		KeyAuthor: {"Jane Doe"},
	}}
	_, err := Collect(context.Background(), DefaultFields("/work/ignored"), p, fixedNow)
	require.NoError(t, err)

	defaults := map[Key]string{}
	for _, q := range p.asked {
		defaults[q.Key] = q.Default
	}
	assert.Equal(t, "Shipping", defaults[KeyDisplayName])
	assert.Equal(t, "Shipping", defaults[KeyClassName])
	assert.Equal(t, `JaneDoe\Shipping`, defaults[KeyNamespace])
	assert.Equal(t, `JaneDoe\Shipping\Vendor`, defaults[KeyVendorPrefix])
}

type failingPrompter struct{ err error }

func (p failingPrompter) Ask(context.Context, Question) (string, error) { return "", p.err }

func TestCollect_PrompterError(t *testing.T) {
	t.Parallel()

	_, err := Collect(context.Background(), DefaultFields("/w/m"), failingPrompter{err: io.EOF}, fixedNow)
	require.ErrorIs(t, err, io.EOF)
}

func TestCollect_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, DefaultFields("/w/m"), &scriptedPrompter{answers: map[Key][]string{}}, fixedNow)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQuestionCheck(t *testing.T) {
	t.Parallel()

	q := Question{Key: KeyName, Default: "mymodule", Validate: ValidateName}

	v, err := q.Check("  ")
	require.NoError(t, err)
	assert.Equal(t, "mymodule", v)

	v, err = q.Check(" other ")
	require.NoError(t, err)
	assert.Equal(t, "other", v)

	_, err = q.Check("bad name!")
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestMetadata_Replacements(t *testing.T) {
	t.Parallel()

	m := Metadata{
		Name:         "mymodule",
		DisplayName:  "My Module",
		Version:      "1.0.0",
		Description:  "Does things",
		Author:       "Acme",
		ClassName:    "MyModule",
		Namespace:    `Acme\MyModule`,
		VendorPrefix: `Acme\MyModule\Vendor`,
		Year:         2026,
	}
	r := m.Replacements()

	assert.Len(t, r, 12)
	assert.Equal(t, "mymodule", r["___NAME___"])
	assert.Equal(t, "MYMODULE", r["___NAME_UPPERCASE___"])
	assert.Equal(t, "2026", r["___YEAR___"])
	assert.Equal(t, `Acme\MyModule`, r["___NAMESPACE___"])
	assert.Equal(t, `Acme\\MyModule`, r["___NAMESPACE_ESCAPED___"])
	assert.Equal(t, `Acme\\MyModule\\Vendor`, r["___VENDOR_PREFIX_ESCAPED___"])
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func testMetadata() Metadata {
	return Metadata{
		Name:         "mymodule",
		DisplayName:  "My Module",
		Version:      "1.0.0",
		Author:       "Acme",
		ClassName:    "MyModule",
		Namespace:    `Acme\MyModule`,
		VendorPrefix: `Acme\MyModule\Vendor`,
		Year:         2026,
	}
}

func newTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "composer.json"),
		`{"name":"acme/___NAME___","autoload":{"psr-4":{"___NAMESPACE_ESCAPED___\\":"src/"}},"extra":{"prestashop-build-tools":{"name":"___NAME___","prefix":"___VENDOR_PREFIX_ESCAPED___"}}}`)
	writeFile(t, filepath.Join(dir, "main.php"),
		"<?php\nclass ___CLASS_NAME___ extends Module\n{\n    // ___DISPLAY_NAME___ ___VERSION___ (c) ___YEAR___ ___AUTHOR___\n}\n")
	writeFile(t, filepath.Join(dir, "config.xml"), "<module><name>___NAME___</name></module>\n")
	writeFile(t, filepath.Join(dir, "src", "Install", "Installer.php"), "<?php\nnamespace ___NAMESPACE___\\Install;\n")
	writeFile(t, filepath.Join(dir, "src", "Plain.php"), "<?php\n// nothing to replace\n")
	writeFile(t, filepath.Join(dir, "views", "templates", "hook.tpl"), "{l s='Hi' mod='___NAME___'}\n")
	writeFile(t, filepath.Join(dir, "docs", "notes.md"), "___NAME___ stays\n")
	return dir
}

func TestApply(t *testing.T) {
	t.Parallel()

	dir := newTemplate(t)
	res, err := Apply(dir, testMetadata(), DefaultTargets())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"composer.json",
		"config.xml",
		"main.php",
		"src/Install/Installer.php",
		"views/templates/hook.tpl",
	}, res.Rewritten)
	assert.Equal(t, "mymodule.php", res.Entry)

	assert.NoFileExists(t, filepath.Join(dir, "main.php"))
	assert.Equal(t,
		"<?php\nclass MyModule extends Module\n{\n    // My Module 1.0.0 (c) 2026 Acme\n}\n",
		read(t, filepath.Join(dir, "mymodule.php")))
	assert.Equal(t,
		`{"name":"acme/mymodule","autoload":{"psr-4":{"Acme\\MyModule\\":"src/"}},"extra":{"prestashop-build-tools":{"name":"mymodule","prefix":"Acme\\MyModule\\Vendor"}}}`,
		read(t, filepath.Join(dir, "composer.json")))
	assert.Equal(t, "<?php\nnamespace Acme\\MyModule\\Install;\n", read(t, filepath.Join(dir, "src", "Install", "Installer.php")))
	assert.Equal(t, "___NAME___ stays\n", read(t, filepath.Join(dir, "docs", "notes.md")), "files outside targets are untouched")
}

func TestApply_EntryExists(t *testing.T) {
	t.Parallel()

	dir := newTemplate(t)
	writeFile(t, filepath.Join(dir, "mymodule.php"), "<?php\n")

	_, err := Apply(dir, testMetadata(), DefaultTargets())
	require.ErrorIs(t, err, ErrEntryExists)
}

func TestApply_Rerun(t *testing.T) {
	t.Parallel()

	dir := newTemplate(t)
	_, err := Apply(dir, testMetadata(), DefaultTargets())
	require.NoError(t, err)

	res, err := Apply(dir, testMetadata(), DefaultTargets())
	require.NoError(t, err)
	assert.Empty(t, res.Rewritten)
	assert.Empty(t, res.Entry)
}

func TestApply_PreservesMode(t *testing.T) {
	t.Parallel()

	dir := newTemplate(t)
	script := filepath.Join(dir, "config", "install.sh")
	writeFile(t, script, "#!/bin/sh\necho ___NAME___\n")
	require.NoError(t, os.Chmod(script, 0o755))

	_, err := Apply(dir, testMetadata(), DefaultTargets())
	require.NoError(t, err)

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.Equal(t, "#!/bin/sh\necho mymodule\n", read(t, script))
}

func TestLoadTargets(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		got, err := LoadTargets(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultTargets(), got)
	})

	t.Run("override", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, defs.ScaffoldYAML), "files:\n  - module.php\ndirectories:\n  - \"modules/**/src\"\nentry: module.php\n")

		got, err := LoadTargets(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"module.php"}, got.Files)
		assert.Equal(t, []string{"modules/**/src"}, got.Directories)
		assert.Equal(t, "module.php", got.Entry)
	})

	t.Run("partial override keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, defs.ScaffoldYAML), "entry: bootstrap.php\n")

		got, err := LoadTargets(dir)
		require.NoError(t, err)
		assert.Equal(t, DefaultTargets().Files, got.Files)
		assert.Equal(t, "bootstrap.php", got.Entry)
	})

	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, defs.ScaffoldYAML), "files: [unterminated\n")

		_, err := LoadTargets(dir)
		require.ErrorIs(t, err, ErrInvalidTargets)
	})
}

func TestApply_DirectoryGlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "modules", "a", "src", "A.php"), "___CLASS_NAME___")
	writeFile(t, filepath.Join(dir, "modules", "b", "lib", "B.php"), "___CLASS_NAME___")

	res, err := Apply(dir, testMetadata(), Targets{Directories: []string{"modules/*/src"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"modules/a/src/A.php"}, res.Rewritten)
	assert.Equal(t, "___CLASS_NAME___", read(t, filepath.Join(dir, "modules", "b", "lib", "B.php")))
}

type recordingRunner struct {
	calls []shell.Command
	err   error
}

func (r *recordingRunner) Run(_ context.Context, cmd shell.Command) (*shell.Result, error) {
	r.calls = append(r.calls, cmd)
	if r.err != nil {
		return nil, r.err
	}
	return &shell.Result{}, nil
}

func TestScaffolder_Run(t *testing.T) {
	t.Parallel()

	dir := newTemplate(t)
	runner := &recordingRunner{}
	p := &scriptedPrompter{answers: map[Key][]string{KeyName: {"mymodule"}, KeyAuthor: {"Acme"}}}

	res, err := New(Config{WorkDir: dir},
		WithPrompter(p),
		WithRunner(runner),
		WithClock(func() time.Time { return fixedNow }),
	).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mymodule", res.Metadata.Name)
	assert.Equal(t, 2026, res.Metadata.Year)
	assert.Equal(t, "mymodule.php", res.Applied.Entry)
	assert.FileExists(t, filepath.Join(dir, "mymodule.php"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "composer", runner.calls[0].Name)
	assert.Equal(t, []string{"update", "--working-dir=" + dir, "--no-interaction"}, runner.calls[0].Args)
}

func TestScaffolder_RefreshFailure(t *testing.T) {
	t.Parallel()

	cmdErr := &shell.CommandError{
		Command:  shell.Command{Name: "composer"},
		ExitCode: 2,
		Stderr:   "Your requirements could not be resolved",
	}
	p := &scriptedPrompter{answers: map[Key][]string{KeyName: {"mymodule"}, KeyAuthor: {"Acme"}}}

	_, err := New(Config{WorkDir: newTemplate(t)}, WithPrompter(p), WithRunner(&recordingRunner{err: cmdErr})).
		Run(context.Background())
	require.ErrorIs(t, err, ErrDependencyRefresh)

	var got *shell.CommandError
	require.True(t, errors.As(err, &got))
	assert.Contains(t, err.Error(), "Your requirements could not be resolved")
}

func TestScaffolder_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(Config{WorkDir: t.TempDir()}).Run(context.Background())
	require.ErrorIs(t, err, ErrNoPrompter)

	_, err = New(Config{WorkDir: filepath.Join(t.TempDir(), "missing")}, WithPrompter(&scriptedPrompter{})).
		Run(context.Background())
	require.ErrorIs(t, err, ErrWorkDirNotFound)
}
