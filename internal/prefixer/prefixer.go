package prefixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dartmoon/prestashop-build-tools/internal/assets"
	"github.com/dartmoon/prestashop-build-tools/internal/defs"
	"github.com/dartmoon/prestashop-build-tools/internal/fsutil"
	"github.com/dartmoon/prestashop-build-tools/internal/phpname"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
)

// Config holds the inputs of one prefix run.
type Config struct {
	WorkDir     string
	VendorDir   string // Defaults to <WorkDir>/vendor.
	PrefixedDir string // Defaults to <WorkDir>/vendor-prefixed.
	ConfigFile  string // php-scoper config; empty resolves to <WorkDir>/scoper.inc.php, then the bundled one.
	Prefix      string
	// MoveVendor copies prefixed packages back into VendorDir. When false the
	// originals are only removed and the prefixed copies stay in PrefixedDir.
	MoveVendor bool
}

// Result describes a finished prefix run.
type Result struct {
	Prefix   string
	Packages []string // vendor_name/package_name, sorted.
	Duration time.Duration
}

// Reporter receives the title of each pipeline step as it starts.
type Reporter interface {
	Step(title string)
}

type nopReporter struct{}

func (nopReporter) Step(string) {}

// Prefixer runs the vendor prefix pipeline.
type Prefixer struct {
	cfg      Config
	runner   shell.Runner
	reporter Reporter
	logger   *slog.Logger
}

// Option configures a Prefixer.
type Option func(*Prefixer)

// WithRunner sets the subprocess runner.
func WithRunner(r shell.Runner) Option {
	return func(p *Prefixer) {
		p.runner = r
	}
}

// WithReporter sets the step reporter.
func WithReporter(r Reporter) Option {
	return func(p *Prefixer) {
		p.reporter = r
	}
}

// WithLogger sets the logger for the prefixer.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prefixer) {
		p.logger = l
	}
}

// New creates a Prefixer for cfg.
func New(cfg Config, opts ...Option) *Prefixer {
	p := &Prefixer{
		cfg:      cfg,
		reporter: nopReporter{},
		logger:   slog.Default().With("module", "prefixer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = shell.NewRunner(shell.WithLogger(p.logger))
	}
	return p
}

type plan struct {
	workDir     string
	vendorDir   string
	prefixedDir string
	staging     string
	backupDir   string
	scoper      assets.Source
	prefix      string
}

func (p *Prefixer) prepare() (*plan, error) {
	cfg := p.cfg

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	if !fsutil.IsDir(workDir) {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirNotFound, workDir)
	}

	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), `\`)
	if prefix == "" {
		return nil, ErrPrefixRequired
	}
	if !phpname.IsNamespace(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, cfg.Prefix)
	}

	pl := &plan{
		workDir:     workDir,
		vendorDir:   filepath.Join(workDir, defs.VendorDir),
		prefixedDir: filepath.Join(workDir, defs.VendorPrefixedDir),
		staging:     filepath.Join(workDir, defs.StagingDir),
		prefix:      prefix,
	}
	pl.backupDir = filepath.Join(pl.staging, defs.VendorBackupDir)

	if cfg.VendorDir != "" {
		if pl.vendorDir, err = filepath.Abs(cfg.VendorDir); err != nil {
			return nil, fmt.Errorf("resolve vendor directory: %w", err)
		}
	}
	if cfg.PrefixedDir != "" {
		if pl.prefixedDir, err = filepath.Abs(cfg.PrefixedDir); err != nil {
			return nil, fmt.Errorf("resolve prefixed directory: %w", err)
		}
	}
	if !fsutil.IsDir(pl.vendorDir) {
		return nil, fmt.Errorf("%w: %s", ErrVendorNotFound, pl.vendorDir)
	}

	pending, err := fsutil.HasEntries(pl.backupDir)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: %s", ErrVendorBackupPending, pl.backupDir)
	}

	if pl.scoper, err = assets.Resolve(cfg.ConfigFile, workDir, defs.ScoperConfig); err != nil {
		return nil, fmt.Errorf("php-scoper config: %w", err)
	}
	return pl, nil
}

// Prefix runs the pipeline. The vendor directory is only modified once the
// prefixed output has been verified, and is restored from backup if any
// later step fails.
func (p *Prefixer) Prefix(ctx context.Context) (*Result, error) {
	start := time.Now()

	pl, err := p.prepare()
	if err != nil {
		return nil, err
	}

	lock, err := fsutil.AcquireLock(filepath.Join(pl.workDir, defs.LockFile))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			p.logger.Warn("release lock", "error", err)
		}
	}()

	step := func(title string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.reporter.Step(title)
		p.logger.Debug("prefix step", "step", title)
		return nil
	}

	if err := step("Cleaning prefixed output"); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(pl.prefixedDir); err != nil {
		return nil, fmt.Errorf("clean prefixed output: %w", err)
	}

	if err := step("Prefixing vendor namespaces"); err != nil {
		return nil, err
	}
	if err := p.scope(ctx, pl); err != nil {
		return nil, fmt.Errorf("prefix vendor namespaces: %w", err)
	}

	if err := step("Verifying prefixed packages"); err != nil {
		return nil, err
	}
	packages, err := Packages(pl.prefixedDir)
	if err != nil {
		return nil, fmt.Errorf("verify prefixed packages: %w", err)
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrefixedPackages, pl.prefixedDir)
	}

	if err := step("Swapping prefixed packages"); err != nil {
		return nil, err
	}
	sw := &swap{plan: pl, logger: p.logger}
	if err := sw.apply(packages, p.cfg.MoveVendor); err != nil {
		return nil, p.rollback(sw, fmt.Errorf("swap prefixed packages: %w", err))
	}

	if err := step("Dumping autoload"); err != nil {
		return nil, p.rollback(sw, err)
	}
	if _, err := p.runner.Run(ctx, shell.Command{
		Name: "composer",
		Args: []string{"dump-autoload", "--working-dir=" + pl.workDir, "--quiet"},
	}); err != nil {
		return nil, p.rollback(sw, fmt.Errorf("dump autoload: %w", err))
	}

	if err := os.RemoveAll(pl.backupDir); err != nil {
		p.logger.Warn("remove vendor backup", "path", pl.backupDir, "error", err)
	}

	res := &Result{Prefix: pl.prefix, Packages: packages, Duration: time.Since(start)}
	p.logger.Info("vendor prefixed", "prefix", pl.prefix, "packages", len(packages), "duration", res.Duration)
	return res, nil
}

// scope runs php-scoper over the vendor directory. The zero-byte marker in
// the vendor directory makes the tool keep the vendor_name/package_name
// layout; it is removed again afterwards.
func (p *Prefixer) scope(ctx context.Context, pl *plan) error {
	configFile, err := pl.scoper.Materialize(pl.staging)
	if err != nil {
		return err
	}

	marker := filepath.Join(pl.vendorDir, defs.BuildToolsTxt)
	content, err := assets.Read(defs.BuildToolsTxt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(marker, content, 0o644); err != nil {
		return fmt.Errorf("write vendor marker: %w", err)
	}
	defer func() {
		_ = os.Remove(marker)
		_ = os.Remove(filepath.Join(pl.prefixedDir, defs.BuildToolsTxt))
	}()

	_, err = p.runner.Run(ctx, shell.Command{
		Name: "php-scoper",
		Args: []string{
			"add-prefix",
			"--working-dir=" + pl.workDir,
			"--output-dir=" + pl.prefixedDir,
			"--config=" + configFile,
			"--prefix=" + pl.prefix,
			"--force",
			"--no-interaction",
			pl.vendorDir,
		},
		Dir: pl.workDir,
	})
	return err
}

func (p *Prefixer) rollback(sw *swap, cause error) error {
	if err := sw.restore(); err != nil {
		p.logger.Error("restore vendor packages", "error", err)
		return errors.Join(cause, fmt.Errorf("restore vendor packages, originals kept in %s: %w", sw.backupDir, err))
	}
	p.logger.Warn("vendor packages restored", "cause", cause)
	return cause
}

// Packages lists the vendor_name/package_name directories under dir. A
// missing dir yields no packages.
func Packages(dir string) ([]string, error) {
	if !fsutil.IsDir(dir) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "*/*")
	if err != nil {
		return nil, err
	}
	var packages []string
	for _, m := range matches {
		if fsutil.IsDir(filepath.Join(dir, filepath.FromSlash(m))) {
			packages = append(packages, m)
		}
	}
	sort.Strings(packages)
	return packages, nil
}
