// Package wizard asks the module scaffold questions, either through huh
// forms on a terminal or line by line on plain input.
package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/dartmoon/prestashop-build-tools/internal/scaffold"
)

// ErrCancelled is returned when the user aborts the wizard.
var ErrCancelled = errors.New("wizard cancelled by user")

// Prompter asks each question in its own huh.Form.
type Prompter struct {
	theme      *huh.Theme
	accessible bool
}

var _ scaffold.Prompter = (*Prompter)(nil)

// Option configures a Prompter.
type Option func(*Prompter)

// WithAccessible switches huh to its accessible, screen-reader friendly mode.
func WithAccessible(on bool) Option {
	return func(p *Prompter) {
		p.accessible = on
	}
}

// WithTheme overrides the form theme.
func WithTheme(t *huh.Theme) Option {
	return func(p *Prompter) {
		p.theme = t
	}
}

// NewPrompter creates a huh-backed Prompter.
func NewPrompter(opts ...Option) *Prompter {
	p := &Prompter{theme: newWizardTheme()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ask shows one input field. The field validator runs on every submit, so
// the form only returns accepted answers.
func (p *Prompter) Ask(ctx context.Context, q scaffold.Question) (string, error) {
	var value string
	form := huh.NewForm(huh.NewGroup(buildInput(q, &value))).
		WithTheme(p.theme).
		WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("wizard error: %w", err)
	}
	return value, nil
}

// buildInput creates the huh.Input for a question.
func buildInput(q scaffold.Question, value *string) *huh.Input {
	inp := huh.NewInput().
		Title(q.Title).
		Value(value).
		Validate(validator(q))

	if q.Default != "" {
		inp = inp.Placeholder(q.Default).
			Description("Press Enter to keep " + q.Default)
	}
	return inp
}

func validator(q scaffold.Question) func(string) error {
	return func(v string) error {
		_, err := q.Check(v)
		return err
	}
}
