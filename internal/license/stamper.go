package license

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Report summarizes a StampTree run.
type Report struct {
	Scanned int // Files with a recognized extension.
	Updated int // Files whose content changed.
	Skipped int // Recognized files left untouched (e.g. PHP without an open tag).
}

// Stamper rewrites license headers across a tree.
type Stamper struct {
	body       []string
	headers    map[Family]string
	extensions []string
	excludes   []string
	logger     *slog.Logger
}

// Option configures a Stamper.
type Option func(*Stamper)

// WithExcludes skips paths matching any of the doublestar patterns, relative
// to the stamped root. A bare name such as "vendor" skips that directory at
// any depth.
func WithExcludes(patterns ...string) Option {
	return func(s *Stamper) {
		s.excludes = append(s.excludes, patterns...)
	}
}

// WithExtensions restricts stamping to the given extensions.
func WithExtensions(exts ...string) Option {
	return func(s *Stamper) {
		s.extensions = exts
	}
}

// WithLogger sets the logger for the stamper.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stamper) {
		s.logger = l
	}
}

// NewStamper creates a Stamper from the license text. The text may be plain
// lines or a /* */ comment block.
func NewStamper(text []byte, opts ...Option) (*Stamper, error) {
	body, err := parseBody(string(text))
	if err != nil {
		return nil, err
	}

	s := &Stamper{
		body:       body,
		headers:    make(map[Family]string, len(familyDelimiters)),
		extensions: DefaultExtensions,
		logger:     slog.Default().With("module", "license"),
	}
	for _, opt := range opts {
		opt(s)
	}
	for f := range familyDelimiters {
		s.headers[f] = render(f, body)
	}
	return s, nil
}

// Header returns the rendered header for a family.
func (s *Stamper) Header(f Family) string {
	return s.headers[f]
}

// StampContent returns src with its header replaced or inserted. The boolean
// reports whether the family accepted the content.
func (s *Stamper) StampContent(f Family, src []byte) ([]byte, bool) {
	out, ok := apply(f, s.headers[f], string(src))
	return []byte(out), ok
}

// excluded reports whether rel (slash-separated) matches an exclude pattern.
func (s *Stamper) excluded(rel string) bool {
	for _, p := range s.excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+p, rel); ok {
			return true
		}
	}
	return false
}

// StampTree rewrites every recognized file under root in place.
func (s *Stamper) StampTree(root string) (*Report, error) {
	report := &Report{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.excluded(rel) {
			return nil
		}

		family, ok := FamilyFor(d.Name(), s.extensions)
		if !ok {
			return nil
		}
		report.Scanned++

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		out, ok := s.StampContent(family, src)
		if !ok {
			report.Skipped++
			return nil
		}
		if bytes.Equal(out, src) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
		report.Updated++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("license headers stamped",
		"root", root,
		"scanned", report.Scanned,
		"updated", report.Updated,
		"skipped", report.Skipped,
	)
	return report, nil
}
