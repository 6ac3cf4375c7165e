// Package build stages a verified header-only package from a source tree.
//
// A run moves through four states. [Configure] validates the toolchain
// settings and binds the source tree to a native build directory.
// [Configured.Build] compiles the tree and runs its verification target,
// "check" unless the recipe names another. [Built.Package] applies the
// descriptor's export rules, copying source subtrees into the package root.
// Each step is a method on the handle returned by the one before, so a
// package can never be staged from a tree that was not verified.
//
// The package descriptor is read from the recipe file at the source root
// ([LoadDescriptor]). Export rules tolerate absent sources, which lets a
// recipe list optional bundled dependencies:
//
//	name: pure-cpp
//	version: 0.0.1
//	header_only: true
//	exports:
//	  - src: LICENSE
//	  - src: include/pure
//	    dst: include/pure
//	  - src: include/immer/immer
//	    dst: include/immer
//	    optional: true
//
// Example usage:
//
//	result, err := build.Run(ctx, &native.CMake{}, build.Options{
//	    Descriptor: desc,
//	    Settings:   settings,
//	    Source:     ".",
//	})
//	if err != nil {
//	    return err
//	}
package build
