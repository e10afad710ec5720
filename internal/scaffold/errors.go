// Package scaffold turns a freshly cloned module template into a named
// module: it collects the module metadata, substitutes the ___KEY___ tokens
// in the template files, renames the entry file and refreshes composer
// dependencies.
package scaffold

import "errors"

// Validation errors, returned by the field validators and shown to the user
// when an answer is rejected.
var (
	ErrInvalidName        = errors.New("use only letters, digits, dashes and underscores")
	ErrInvalidDisplayName = errors.New(`must not contain digits or any of !<>,;?=+()@#"°{}_$%:¤|`)
	ErrInvalidVersion     = errors.New("must be a version of at least 0.0.1")
	ErrAuthorRequired     = errors.New("author is required")
	ErrInvalidClassName   = errors.New("must be a valid PHP class name")
	ErrInvalidNamespace   = errors.New(`must be a PHP namespace such as Acme\MyModule`)
)

// Pipeline errors.
var (
	// ErrWorkDirNotFound indicates the module directory does not exist.
	ErrWorkDirNotFound = errors.New("scaffold: working directory not found")

	// ErrInvalidTargets indicates pbt-scaffold.yaml could not be parsed.
	ErrInvalidTargets = errors.New("scaffold: invalid target file")

	// ErrEntryExists indicates the renamed entry file would overwrite an
	// existing file.
	ErrEntryExists = errors.New("scaffold: entry file already exists")

	// ErrDependencyRefresh indicates composer failed to refresh dependencies.
	ErrDependencyRefresh = errors.New("scaffold: dependency refresh failed")

	// ErrNoPrompter indicates Run was called without a prompter.
	ErrNoPrompter = errors.New("scaffold: no prompter configured")
)
