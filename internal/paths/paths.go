package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cruciblehq/cruxpkg/internal"
)

const (

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Root directory for native build trees.
//
//	Linux:   $XDG_CACHE_HOME/cruxpkg/build
//	macOS:   ~/Library/Caches/cruxpkg/build
func BuildRoot() string {
	return filepath.Join(xdg.CacheHome, internal.Name, "build")
}

// Build directory for a package under a specific toolchain configuration.
//
// The settings ID keeps build trees for different toolchains apart, so a
// debug and a release build of the same version never share a cache.
func BuildDir(name, version, settingsID string) string {
	return filepath.Join(BuildRoot(), name+"-"+version, settingsID)
}

// Build directory for the consumer program validating a package.
func ConsumerBuildDir(name, version, settingsID string) string {
	return filepath.Join(BuildRoot(), name+"-"+version, settingsID, "consumer")
}

// Root directory for staged packages.
//
//	Linux:   $XDG_DATA_HOME/cruxpkg/packages
//	macOS:   ~/Library/Application Support/cruxpkg/packages
func PackageRoot() string {
	return filepath.Join(xdg.DataHome, internal.Name, "packages")
}

// Output root for a staged package. Header-only packages do not depend on the
// toolchain, so the directory is keyed by name and version only.
func PackageDir(name, version string) string {
	return filepath.Join(PackageRoot(), name, version)
}
