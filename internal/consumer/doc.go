// Package consumer validates a staged package by using it.
//
// Checking that files exist says nothing about whether a downstream build can
// find them. Instead, a minimal consumer program is configured against the
// staged package with the toolchain's standard include-path mechanism,
// compiled, and run from its own directory. The package is usable if the
// program compiles and exits zero.
//
// Example usage:
//
//	cc, err := consumer.Configure(ctx, tool, settings, pkgRoot, desc, consumer.Options{
//	    Source:   "test_package",
//	    BuildDir: "build/consumer",
//	})
//	if err != nil {
//	    return err
//	}
//	bin, err := consumer.Build(ctx, cc)
//	if err != nil {
//	    return err
//	}
//	result, err := consumer.Run(ctx, bin)
package consumer
