package defs

// Common file names used across the project.
const (
	// ComposerJSON is the PHP dependency manifest read for tool defaults.
	ComposerJSON = "composer.json"

	// ExcludesTxt is the rsync exclude-from list applied when staging a module.
	ExcludesTxt = "excludes.txt"

	// CopyrightTxt is the license header stamped on every source file.
	CopyrightTxt = "copyright.txt"

	// IndexPHP is the marker file PrestaShop requires in every directory.
	IndexPHP = "index.php"

	// ScoperConfig is the php-scoper configuration file.
	ScoperConfig = "scoper.inc.php"

	// BuildToolsTxt is the zero-byte file placed in the vendor directory so the
	// prefixer keeps the vendor_name/package_name layout.
	BuildToolsTxt = "build-tools.txt"

	// ScaffoldYAML overrides the files rewritten by the install command.
	ScaffoldYAML = "pbt-scaffold.yaml"

	// LockFile serializes pipelines running against the same working directory.
	LockFile = ".pbt.lock"
)

// Directory names relative to the working directory.
const (
	// StagingDir is the hidden staging directory recreated on every run.
	StagingDir = ".pbt"

	// VendorDir is the composer vendor directory.
	VendorDir = "vendor"

	// VendorPrefixedDir receives the prefixer output before it is swapped in.
	VendorPrefixedDir = "vendor-prefixed"

	// VendorBackupDir holds original packages during the vendor swap.
	VendorBackupDir = "vendor-backup"
)

// Manifest keys under composer.json "extra".
const (
	// ExtraNameKey holds the default module name.
	ExtraNameKey = "extra.prestashop-build-tools.name"

	// ExtraPrefixKey holds the default vendor namespace prefix.
	ExtraPrefixKey = "extra.prestashop-build-tools.prefix"
)
