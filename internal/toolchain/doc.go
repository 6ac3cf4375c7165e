// Package toolchain holds the environment axes that parameterize a build.
//
// A [Settings] value names the C++ language standard, target OS, compiler,
// build type and architecture. The same value is passed explicitly to the
// build orchestrator and to the consumer validator; nothing reads it from
// process-wide state. [Settings.Validate] rejects a value with any axis
// missing, and [Settings.ID] derives a stable digest used to keep build trees
// for different toolchains apart.
package toolchain
