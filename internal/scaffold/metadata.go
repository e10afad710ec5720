package scaffold

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dartmoon/prestashop-build-tools/internal/phpname"
)

// Metadata is the collected module description.
type Metadata struct {
	Name         string
	DisplayName  string
	Version      string
	Description  string
	Author       string
	ClassName    string
	Namespace    string
	VendorPrefix string
	Year         int
}

func (m *Metadata) set(k Key, v string) {
	switch k {
	case KeyName:
		m.Name = v
	case KeyDisplayName:
		m.DisplayName = v
	case KeyVersion:
		m.Version = v
	case KeyDescription:
		m.Description = v
	case KeyAuthor:
		m.Author = v
	case KeyClassName:
		m.ClassName = v
	case KeyNamespace:
		m.Namespace = v
	case KeyVendorPrefix:
		m.VendorPrefix = v
	}
}

// Values returns every key, derived ones included, with its value.
func (m Metadata) Values() map[Key]string {
	return map[Key]string{
		KeyName:                m.Name,
		KeyDisplayName:         m.DisplayName,
		KeyVersion:             m.Version,
		KeyDescription:         m.Description,
		KeyAuthor:              m.Author,
		KeyClassName:           m.ClassName,
		KeyNamespace:           m.Namespace,
		KeyVendorPrefix:        m.VendorPrefix,
		KeyNameUppercase:       strings.ToUpper(m.Name),
		KeyYear:                strconv.Itoa(m.Year),
		KeyNamespaceEscaped:    phpname.Escape(m.Namespace),
		KeyVendorPrefixEscaped: phpname.Escape(m.VendorPrefix),
	}
}

// Replacements maps each ___KEY___ token to its value.
func (m Metadata) Replacements() map[string]string {
	values := m.Values()
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[Token(k)] = v
	}
	return out
}

// Question is what a Prompter shows for one field.
type Question struct {
	Key      Key
	Title    string
	Default  string
	Validate func(string) error
}

// Check resolves an answer against the question: a blank answer takes the
// default, and the result must pass the field validator.
func (q Question) Check(answer string) (string, error) {
	v := strings.TrimSpace(answer)
	if v == "" {
		v = q.Default
	}
	if q.Validate != nil {
		if err := q.Validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

// Prompter asks the user for one value. Implementations should re-ask
// until Question.Check accepts the answer and return the raw answer.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// Collect asks every field in order and returns the accepted metadata. A
// rejected answer is asked again; only prompter errors end collection.
func Collect(ctx context.Context, fields []Field, p Prompter, now time.Time) (Metadata, error) {
	m := Metadata{Year: now.Year()}

	for _, f := range fields {
		q := Question{Key: f.Key, Title: f.Title, Validate: f.Validate}
		if f.Default != nil {
			q.Default = f.Default(m)
		}

		for {
			if err := ctx.Err(); err != nil {
				return Metadata{}, err
			}
			answer, err := p.Ask(ctx, q)
			if err != nil {
				return Metadata{}, err
			}
			v, err := q.Check(answer)
			if err != nil {
				continue
			}
			m.set(f.Key, v)
			break
		}
	}
	return m, nil
}
