// Package builder packages a PrestaShop module working directory into a
// distributable <module>.zip artifact.
package builder

import "errors"

// Sentinel errors for the build pipeline.
var (
	// ErrWorkDirNotFound indicates the working directory does not exist.
	ErrWorkDirNotFound = errors.New("builder: working directory not found")

	// ErrModuleNameRequired indicates no module name was given and the
	// manifest did not provide one.
	ErrModuleNameRequired = errors.New("builder: module name is required")

	// ErrInvalidModuleName indicates the module name cannot be used as a
	// directory and archive name.
	ErrInvalidModuleName = errors.New("builder: invalid module name")

	// ErrVendorBackupPending indicates the staging directory still holds the
	// original vendor packages of a prefix run whose restore failed.
	// Recreating staging would delete them.
	ErrVendorBackupPending = errors.New("builder: staging directory holds an unrestored vendor backup")
)
