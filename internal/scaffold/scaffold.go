package scaffold

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dartmoon/prestashop-build-tools/internal/fsutil"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
)

// Config holds the inputs of one scaffold run.
type Config struct {
	WorkDir string
}

// Result describes a finished scaffold run.
type Result struct {
	Metadata Metadata
	Applied  ApplyResult
}

// Scaffolder runs the install pipeline.
type Scaffolder struct {
	cfg      Config
	prompter Prompter
	runner   shell.Runner
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Scaffolder.
type Option func(*Scaffolder)

// WithPrompter sets the prompter used to collect metadata.
func WithPrompter(p Prompter) Option {
	return func(s *Scaffolder) {
		s.prompter = p
	}
}

// WithRunner sets the subprocess runner.
func WithRunner(r shell.Runner) Option {
	return func(s *Scaffolder) {
		s.runner = r
	}
}

// WithClock overrides the wall clock used for the YEAR value.
func WithClock(now func() time.Time) Option {
	return func(s *Scaffolder) {
		s.now = now
	}
}

// WithLogger sets the logger for the scaffolder.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scaffolder) {
		s.logger = l
	}
}

// New creates a Scaffolder.
func New(cfg Config, opts ...Option) *Scaffolder {
	s := &Scaffolder{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("module", "scaffold"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = shell.NewRunner(shell.WithLogger(s.logger))
	}
	return s
}

// Run collects the metadata, rewrites the template and refreshes composer
// dependencies.
func (s *Scaffolder) Run(ctx context.Context) (*Result, error) {
	if s.prompter == nil {
		return nil, ErrNoPrompter
	}
	workDir, err := filepath.Abs(s.cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	if !fsutil.IsDir(workDir) {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirNotFound, workDir)
	}

	targets, err := LoadTargets(workDir)
	if err != nil {
		return nil, err
	}

	meta, err := Collect(ctx, DefaultFields(workDir), s.prompter, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("metadata collected", "name", meta.Name, "namespace", meta.Namespace)

	applied, err := Apply(workDir, meta, targets)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("template rewritten", "files", len(applied.Rewritten), "entry", applied.Entry)

	if _, err := s.runner.Run(ctx, shell.Command{
		Name: "composer",
		Args: []string{"update", "--working-dir=" + workDir, "--no-interaction"},
	}); err != nil {
		// The command error carries composer's stderr.
		return nil, fmt.Errorf("%w: %w", ErrDependencyRefresh, err)
	}

	return &Result{Metadata: meta, Applied: *applied}, nil
}
