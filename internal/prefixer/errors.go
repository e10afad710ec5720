// Package prefixer rewrites the namespaces of composer dependencies under a
// project prefix and swaps the prefixed packages into the vendor directory.
package prefixer

import "errors"

// Sentinel errors for the prefix pipeline.
var (
	// ErrWorkDirNotFound indicates the working directory does not exist.
	ErrWorkDirNotFound = errors.New("prefixer: working directory not found")

	// ErrVendorNotFound indicates the vendor directory does not exist.
	ErrVendorNotFound = errors.New("prefixer: vendor directory not found")

	// ErrPrefixRequired indicates no prefix was given and the manifest did
	// not provide one.
	ErrPrefixRequired = errors.New("prefixer: namespace prefix is required")

	// ErrInvalidPrefix indicates the prefix is not a namespace.
	ErrInvalidPrefix = errors.New("prefixer: invalid namespace prefix")

	// ErrNoPrefixedPackages indicates the prefixing tool produced no
	// vendor_name/package_name directories. The vendor directory is left
	// untouched.
	ErrNoPrefixedPackages = errors.New("prefixer: prefixed output contains no packages")

	// ErrVendorBackupPending indicates a previous run left original packages
	// in the backup directory. They must be moved back by hand first.
	ErrVendorBackupPending = errors.New("prefixer: unrestored vendor backup from a previous run")
)
