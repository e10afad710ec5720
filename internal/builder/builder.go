package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dartmoon/prestashop-build-tools/internal/assets"
	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/fsutil"
	"github.com/dartmoon/prestashop-build-tools/internal/license"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
)

// Config holds the inputs of one build. Empty asset paths resolve to
// <WorkDir>/<file> and then to the bundled default.
type Config struct {
	WorkDir       string
	OutputDir     string // Defaults to WorkDir.
	StagingDir    string // Defaults to <WorkDir>/.pbt.
	ModuleName    string
	ExcludeFile   string
	LicenseFile   string
	IndexFile     string
	Authoritative bool // Regenerate an authoritative classmap before staging.
	KeepStaging   bool // Leave the staged tree in place after packaging.
}

// Result describes a finished build.
type Result struct {
	Artifact string // Absolute path of the produced archive.
	Staged   string // Staged module tree; empty unless KeepStaging.
	Markers  int
	Headers  license.Report
	Duration time.Duration
}

// Reporter receives the title of each pipeline step as it starts.
type Reporter interface {
	Step(title string)
}

type nopReporter struct{}

func (nopReporter) Step(string) {}

// Builder runs the artifact pipeline.
type Builder struct {
	cfg      Config
	runner   shell.Runner
	reporter Reporter
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner sets the subprocess runner.
func WithRunner(r shell.Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithReporter sets the step reporter.
func WithReporter(r Reporter) Option {
	return func(b *Builder) {
		b.reporter = r
	}
}

// WithLogger sets the logger for the builder.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// New creates a Builder for cfg.
func New(cfg Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		reporter: nopReporter{},
		logger:   slog.Default().With("module", "builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.runner == nil {
		b.runner = shell.NewRunner(shell.WithLogger(b.logger))
	}
	return b
}

// ArtifactName returns the archive file name for a module.
func ArtifactName(module string) string {
	return module + ".zip"
}

// plan is the validated, fully resolved form of Config.
type plan struct {
	workDir   string
	outputDir string
	staging   string
	module    string
	moduleDir string
	excludes  assets.Source
	marker    []byte
	stamper   *license.Stamper
}

func (b *Builder) prepare() (*plan, error) {
	cfg := b.cfg

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	if !fsutil.IsDir(workDir) {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirNotFound, workDir)
	}

	module := strings.TrimSpace(cfg.ModuleName)
	if module == "" {
		return nil, ErrModuleNameRequired
	}
	if module == "." || module == ".." || strings.ContainsAny(module, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModuleName, module)
	}

	p := &plan{
		workDir:   workDir,
		outputDir: workDir,
		staging:   filepath.Join(workDir, defs.StagingDir),
		module:    module,
	}
	if cfg.OutputDir != "" {
		if p.outputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
	}
	if cfg.StagingDir != "" {
		if p.staging, err = filepath.Abs(cfg.StagingDir); err != nil {
			return nil, fmt.Errorf("resolve staging directory: %w", err)
		}
	}
	p.moduleDir = filepath.Join(p.staging, module)

	backup := filepath.Join(p.staging, defs.VendorBackupDir)
	pending, err := fsutil.HasEntries(backup)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: %s", ErrVendorBackupPending, backup)
	}

	if p.excludes, err = assets.Resolve(cfg.ExcludeFile, workDir, defs.ExcludesTxt); err != nil {
		return nil, fmt.Errorf("exclusion list: %w", err)
	}

	licenseSrc, err := assets.Resolve(cfg.LicenseFile, workDir, defs.CopyrightTxt)
	if err != nil {
		return nil, fmt.Errorf("license header: %w", err)
	}
	text, err := licenseSrc.Content()
	if err != nil {
		return nil, fmt.Errorf("license header: %w", err)
	}
	p.stamper, err = license.NewStamper(text,
		license.WithExcludes(defs.VendorDir),
		license.WithLogger(b.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("license header: %w", err)
	}

	markerSrc, err := assets.Resolve(cfg.IndexFile, workDir, defs.IndexPHP)
	if err != nil {
		return nil, fmt.Errorf("marker file: %w", err)
	}
	if p.marker, err = markerSrc.Content(); err != nil {
		return nil, fmt.Errorf("marker file: %w", err)
	}

	return p, nil
}

// Build runs the pipeline. Validation happens before the filesystem is
// touched; any failing step aborts the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	p, err := b.prepare()
	if err != nil {
		return nil, err
	}

	lock, err := fsutil.AcquireLock(filepath.Join(p.workDir, defs.LockFile))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			b.logger.Warn("release lock", "error", err)
		}
	}()

	result := &Result{}
	artifact := filepath.Join(p.outputDir, ArtifactName(p.module))

	steps := []struct {
		title string
		skip  bool
		run   func(ctx context.Context) error
	}{
		{"Generating authoritative classmap", !b.cfg.Authoritative, func(ctx context.Context) error {
			return b.exec(ctx, shell.Command{
				Name: "composer",
				Args: []string{"dump-autoload", "--working-dir=" + p.workDir, "--classmap-authoritative", "--quiet"},
			})
		}},
		{"Preparing staging directory", false, func(context.Context) error {
			return fsutil.Recreate(p.staging)
		}},
		{"Removing previous artifact", false, func(context.Context) error {
			if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %q: %w", artifact, err)
			}
			return nil
		}},
		{"Copying module files", false, func(ctx context.Context) error {
			return b.sync(ctx, p)
		}},
		{"Adding index.php files", false, func(context.Context) error {
			n, err := fsutil.InjectMarkers(p.moduleDir, defs.IndexPHP, p.marker)
			result.Markers = n
			return err
		}},
		{"Updating license headers", false, func(context.Context) error {
			report, err := p.stamper.StampTree(p.moduleDir)
			if err != nil {
				return err
			}
			result.Headers = *report
			return nil
		}},
		{"Creating archive", false, func(ctx context.Context) error {
			return b.exec(ctx, shell.Command{
				Name: "zip",
				Args: []string{"-r", "-q", ArtifactName(p.module), p.module},
				Dir:  p.staging,
			})
		}},
		{"Moving archive", false, func(context.Context) error {
			return fsutil.Move(filepath.Join(p.staging, ArtifactName(p.module)), artifact)
		}},
	}

	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.reporter.Step(step.title)
		b.logger.Debug("build step", "step", step.title, "module", p.module)
		if err := step.run(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(step.title), err)
		}
	}

	if b.cfg.KeepStaging {
		result.Staged = p.moduleDir
	} else if err := os.RemoveAll(p.staging); err != nil {
		b.logger.Warn("remove staging directory", "path", p.staging, "error", err)
	}

	result.Artifact = artifact
	result.Duration = time.Since(start)
	b.logger.Info("module packaged", "artifact", artifact, "duration", result.Duration)
	return result, nil
}

// sync mirrors the working directory into the staged module tree. Zero-byte
// files and directories left empty after exclusion are dropped.
func (b *Builder) sync(ctx context.Context, p *plan) error {
	excludeFile, err := p.excludes.Materialize(p.staging)
	if err != nil {
		return err
	}

	args := []string{
		"-a",
		"--exclude-from=" + excludeFile,
		"--exclude=/" + defs.LockFile,
		"--exclude=/" + ArtifactName(p.module),
	}
	if rel, ok := within(p.workDir, p.staging); ok {
		args = append(args, "--exclude=/"+rel+"/")
	}
	args = append(args,
		"--prune-empty-dirs",
		"--min-size=1",
		"--quiet",
		p.workDir+string(filepath.Separator),
		p.moduleDir+string(filepath.Separator),
	)

	return b.exec(ctx, shell.Command{Name: "rsync", Args: args})
}

func (b *Builder) exec(ctx context.Context, cmd shell.Command) error {
	_, err := b.runner.Run(ctx, cmd)
	return err
}

// within returns path relative to root when path lies inside root.
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
