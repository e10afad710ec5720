// Package manifest reads composer.json once and exposes dot-path lookups
// used to source tool defaults such as the module name and vendor prefix.
package manifest

import "errors"

// Sentinel errors for the manifest package.
var (
	// ErrManifestNotFound indicates the manifest path is absent or not a regular file.
	ErrManifestNotFound = errors.New("manifest: not a valid composer.json file")

	// ErrInvalidManifest indicates the manifest could not be decoded as JSON.
	ErrInvalidManifest = errors.New("manifest: cannot read composer.json")
)
