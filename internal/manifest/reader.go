package manifest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

// Manifest is a read-only view over a parsed composer.json. Lookups run
// against the raw document, so keys are matched case-sensitively and nested
// maps keep their original keys.
type Manifest struct {
	path string
	raw  []byte
}

// Read parses the manifest at path. It fails fast when the file is missing,
// is a directory, or does not contain valid JSON.
func Read(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %q", ErrManifestNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidManifest, path, err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidManifest, path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidManifest, path)
	}

	return &Manifest{path: path, raw: data}, nil
}

// Path returns the file the manifest was read from.
func (m *Manifest) Path() string {
	return m.path
}

// Get returns the value at the dot-separated key, or def when any segment
// of the path is absent or the value is null. Objects come back as
// map[string]any, arrays as []any and numbers as float64.
func (m *Manifest) Get(key string, def any) any {
	res := gjson.GetBytes(m.raw, lookupPath(key))
	if !res.Exists() {
		return def
	}
	val := res.Value()
	if val == nil {
		return def
	}
	return val
}

// GetString is Get for string values. Non-string scalars are converted;
// maps and slices fall back to def.
func (m *Manifest) GetString(key, def string) string {
	switch val := m.Get(key, nil).(type) {
	case nil:
		return def
	case map[string]any, []any:
		return def
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return def
		}
		return s
	}
}

// gjsonSpecial holds the characters gjson interprets inside a path segment.
const gjsonSpecial = `\*?#@|!=<>%[]{}(),:"`

// lookupPath turns a plain dot-separated key into a gjson path whose
// segments match literally.
func lookupPath(key string) string {
	segments := strings.Split(key, ".")
	for i, seg := range segments {
		var b strings.Builder
		for _, r := range seg {
			if strings.ContainsRune(gjsonSpecial, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		segments[i] = b.String()
	}
	return strings.Join(segments, ".")
}
