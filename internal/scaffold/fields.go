package scaffold

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dartmoon/prestashop-build-tools/internal/phpname"
)

// Key names a metadata value. Tokens in template files are the key wrapped
// in triple underscores.
type Key string

// Keys collected from the user, in prompting order.
const (
	KeyName         Key = "NAME"
	KeyDisplayName  Key = "DISPLAY_NAME"
	KeyVersion      Key = "VERSION"
	KeyDescription  Key = "DESCRIPTION"
	KeyAuthor       Key = "AUTHOR"
	KeyClassName    Key = "CLASS_NAME"
	KeyNamespace    Key = "NAMESPACE"
	KeyVendorPrefix Key = "VENDOR_PREFIX"
)

// Derived keys.
const (
	KeyNameUppercase       Key = "NAME_UPPERCASE"
	KeyYear                Key = "YEAR"
	KeyNamespaceEscaped    Key = "NAMESPACE_ESCAPED"
	KeyVendorPrefixEscaped Key = "VENDOR_PREFIX_ESCAPED"
)

// Token returns the placeholder written in template files for k.
func Token(k Key) string {
	return "___" + string(k) + "___"
}

// Field is one prompted metadata value.
type Field struct {
	Key   Key
	Title string
	// Default computes the suggested value from the answers accepted so far.
	Default  func(m Metadata) string
	Validate func(string) error
}

var (
	nameRe        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	displayNameRe = regexp.MustCompile(`^[^0-9!<>,;?=+()@#"°{}_$%:¤|]*$`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	nonWordRe     = regexp.MustCompile(`\W+`)
	extraPartsRe  = regexp.MustCompile(`^(\d+\.\d+\.\d+)((?:\.\d+)+)$`)
)

// ValidateName accepts module technical names.
func ValidateName(s string) error {
	if !nameRe.MatchString(s) {
		return ErrInvalidName
	}
	return nil
}

// ValidateDisplayName rejects digits and a set of punctuation characters.
// An empty display name is accepted.
func ValidateDisplayName(s string) error {
	if !displayNameRe.MatchString(s) {
		return ErrInvalidDisplayName
	}
	return nil
}

// ValidateVersion accepts semantic versions (major or major.minor shorthand
// allowed) of at least 0.0.1. Four-part versions such as 1.0.0.1 are
// accepted too; parts after the third only count as build metadata.
func ValidateVersion(s string) error {
	v := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if m := extraPartsRe.FindStringSubmatch(v); m != nil {
		v = m[1] + "+" + strings.TrimPrefix(m[2], ".")
	}
	v = "v" + v
	if s == "" || !semver.IsValid(v) || semver.Compare(v, "v0.0.1") < 0 {
		return ErrInvalidVersion
	}
	return nil
}

// ValidateAuthor requires a non-blank author.
func ValidateAuthor(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrAuthorRequired
	}
	return nil
}

// ValidateClassName accepts PHP identifiers.
func ValidateClassName(s string) error {
	if !phpname.IsIdentifier(s) {
		return ErrInvalidClassName
	}
	return nil
}

// ValidateNamespace accepts backslash-separated PHP identifiers. It also
// validates vendor prefixes.
func ValidateNamespace(s string) error {
	if !phpname.IsNamespace(s) {
		return ErrInvalidNamespace
	}
	return nil
}

func accept(string) error { return nil }

// sanitize strips markup and every non-word character.
func sanitize(s string) string {
	return nonWordRe.ReplaceAllString(tagRe.ReplaceAllString(s, ""), "")
}

// DefaultName derives a module name from the working directory.
func DefaultName(workDir string) string {
	return strings.ToLower(strings.ReplaceAll(filepath.Base(workDir), " ", ""))
}

// DefaultDisplayName title-cases a module name, treating dashes and
// underscores as word breaks.
func DefaultDisplayName(name string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.Und, cases.NoLower).String(words)
}

// DefaultFields returns the prompted fields in order for a module living in
// workDir.
func DefaultFields(workDir string) []Field {
	name := DefaultName(workDir)

	return []Field{
		{
			Key:   KeyName,
			Title: "Module name",
			Default: func(Metadata) string {
				return name
			},
			Validate: ValidateName,
		},
		{
			Key:   KeyDisplayName,
			Title: "Module display name",
			Default: func(m Metadata) string {
				return DefaultDisplayName(m.Name)
			},
			Validate: ValidateDisplayName,
		},
		{
			Key:   KeyVersion,
			Title: "Module version",
			Default: func(Metadata) string {
				return "1.0.0"
			},
			Validate: ValidateVersion,
		},
		{
			Key:      KeyDescription,
			Title:    "Module description",
			Validate: accept,
		},
		{
			Key:      KeyAuthor,
			Title:    "Module author",
			Validate: ValidateAuthor,
		},
		{
			Key:   KeyClassName,
			Title: "Module class name",
			Default: func(m Metadata) string {
				return sanitize(m.DisplayName)
			},
			Validate: ValidateClassName,
		},
		{
			Key:   KeyNamespace,
			Title: "Module namespace",
			Default: func(m Metadata) string {
				return sanitize(m.Author) + `\` + m.ClassName
			},
			Validate: ValidateNamespace,
		},
		{
			Key:   KeyVendorPrefix,
			Title: "Module vendor prefix",
			Default: func(m Metadata) string {
				return m.Namespace + `\Vendor`
			},
			Validate: ValidateNamespace,
		},
	}
}
