// Package license rewrites the license header comment at the top of module
// source files. Each file family has its own comment syntax; the header body
// is shared.
package license

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyLicense indicates the license text has no content once comment
// delimiters are removed.
var ErrEmptyLicense = errors.New("license: empty license text")

// Family groups file extensions sharing a comment syntax.
type Family int

const (
	// FamilyPHP covers .php files; the header goes right after the open tag.
	FamilyPHP Family = iota
	// FamilyCStyle covers .js, .css and .scss files.
	FamilyCStyle
	// FamilySmarty covers .tpl templates.
	FamilySmarty
	// FamilyTwig covers .html.twig templates.
	FamilyTwig
	// FamilyVue covers .vue single-file components.
	FamilyVue
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyPHP:
		return "php"
	case FamilyCStyle:
		return "c-style"
	case FamilySmarty:
		return "smarty"
	case FamilyTwig:
		return "twig"
	case FamilyVue:
		return "vue"
	default:
		return "unknown"
	}
}

// DefaultExtensions lists the extensions stamped by default.
var DefaultExtensions = []string{"php", "js", "css", "scss", "tpl", "html.twig", "vue"}

// extensionFamilies maps an extension (without the leading dot) to its family.
var extensionFamilies = map[string]Family{
	"php":       FamilyPHP,
	"js":        FamilyCStyle,
	"css":       FamilyCStyle,
	"scss":      FamilyCStyle,
	"tpl":       FamilySmarty,
	"html.twig": FamilyTwig,
	"vue":       FamilyVue,
}

// FamilyFor returns the family of a file name among the given extensions.
// Longer extensions win, so "a.html.twig" is twig even if "twig" is absent.
func FamilyFor(name string, extensions []string) (Family, bool) {
	best := ""
	for _, ext := range extensions {
		ext = strings.TrimPrefix(ext, ".")
		if strings.HasSuffix(name, "."+ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return 0, false
	}
	f, ok := extensionFamilies[best]
	return f, ok
}

// delimiters are the opening and closing markers of a rendered header.
// terminator is the sequence that ends the comment early when it appears in
// the body; it is rendered as escaped instead.
type delimiters struct {
	open, close        string
	terminator, escape string
}

var familyDelimiters = map[Family]delimiters{
	FamilyPHP:    {"/**", " */", "*/", "* /"},
	FamilyCStyle: {"/**", " */", "*/", "* /"},
	FamilySmarty: {"{**", " *}", "*}", "* }"},
	FamilyTwig:   {"{#**", " *#}", "#}", "# }"},
	FamilyVue:    {"<!--**", " *-->", "-->", "-- >"},
}

// existingHeader matches a leading doc comment. It is replaced only when it
// reads as a license header; other doc comments and plain comments are kept
// and the header is inserted above them.
var existingHeader = map[Family]*regexp.Regexp{
	FamilyPHP:    regexp.MustCompile(`^\s*/\*\*[\s\S]*?\*/`),
	FamilyCStyle: regexp.MustCompile(`^\s*/\*\*[\s\S]*?\*/`),
	FamilySmarty: regexp.MustCompile(`^\s*\{\*\*[\s\S]*?\*\}`),
	FamilyTwig:   regexp.MustCompile(`^\s*\{#\*\*[\s\S]*?#\}`),
	FamilyVue:    regexp.MustCompile(`^\s*<!--\*\*[\s\S]*?-->`),
}

// licenseKeywords marks a doc comment as a license header.
var licenseKeywords = regexp.MustCompile(`(?i)copyright|licen[cs]e|\bnotice\b|©`)

// phpOpenTag matches the open tag and the whitespace following it.
var phpOpenTag = regexp.MustCompile(`^(\xEF\xBB\xBF)?<\?php(\s+|$)`)

// charsetRule matches a leading CSS @charset rule, which must stay first.
var charsetRule = regexp.MustCompile(`^(\xEF\xBB\xBF)?@charset\s+("[^"]*"|'[^']*')\s*;`)

// parseBody extracts the header lines from a license file. A text wrapped in
// a /* */ comment has its delimiters and leading asterisks removed.
func parseBody(text string) ([]string, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")

	commented := strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/")
	if commented {
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimPrefix(text, "*")
		text = strings.TrimSuffix(text, "*/")
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if commented {
			trimmed := strings.TrimLeft(line, " \t")
			if strings.HasPrefix(trimmed, "*") {
				line = strings.TrimPrefix(strings.TrimPrefix(trimmed, "*"), " ")
			}
		}
		lines = append(lines, line)
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, ErrEmptyLicense
	}
	return lines, nil
}

// render builds the header comment for a family.
func render(f Family, body []string) string {
	d := familyDelimiters[f]
	var b strings.Builder
	b.WriteString(d.open)
	b.WriteByte('\n')
	for _, line := range body {
		if line == "" {
			b.WriteString(" *\n")
			continue
		}
		b.WriteString(" * ")
		b.WriteString(strings.ReplaceAll(line, d.terminator, d.escape))
		b.WriteByte('\n')
	}
	b.WriteString(d.close)
	return b.String()
}

// apply replaces or inserts header at the top of src. The second return
// value is false when the file is left untouched (a PHP file without an
// open tag).
func apply(f Family, header string, src string) (string, bool) {
	prefix := ""
	rest := src

	if f == FamilyPHP {
		loc := phpOpenTag.FindStringSubmatchIndex(src)
		if loc == nil {
			return src, false
		}
		bom := ""
		if loc[2] >= 0 {
			bom = src[loc[2]:loc[3]]
		}
		prefix = bom + "<?php\n"
		rest = src[loc[1]:]
	}

	if f == FamilyCStyle {
		prefix, rest = splitCharset(rest)
	}
	rest = stripHeader(f, header, rest)
	if f == FamilyCStyle && prefix == "" {
		// Files stamped above their @charset rule get it moved back on top.
		prefix, rest = splitCharset(rest)
	}

	rest = strings.TrimLeft(rest, "\r\n")
	if f != FamilyPHP {
		rest = strings.TrimLeft(rest, " \t\r\n")
	}

	sep := "\n"
	if f == FamilyPHP && rest != "" {
		sep = "\n\n"
	}
	return prefix + header + sep + rest, true
}

// stripHeader removes a leading doc comment from rest when it is the
// rendered header itself or mentions a copyright or license.
func stripHeader(f Family, header, rest string) string {
	loc := existingHeader[f].FindStringIndex(rest)
	if loc == nil {
		return rest
	}
	comment := strings.TrimSpace(rest[loc[0]:loc[1]])
	if comment != header && !licenseKeywords.MatchString(comment) {
		return rest
	}
	return rest[loc[1]:]
}

// splitCharset returns the leading @charset rule of src, terminated by a
// newline, and the remaining content. Without a rule prefix is empty.
func splitCharset(src string) (prefix, rest string) {
	trimmed := strings.TrimLeft(src, " \t\r\n")
	loc := charsetRule.FindStringIndex(trimmed)
	if loc == nil {
		return "", src
	}
	return trimmed[:loc[1]] + "\n", trimmed[loc[1]:]
}
