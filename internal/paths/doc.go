// Provides platform-appropriate default locations for build trees and staged
// packages.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows, under a "cruxpkg" subdirectory. Build trees are
// disposable and live under the cache home; staged packages are the product
// of a run and live under the data home.
package paths
