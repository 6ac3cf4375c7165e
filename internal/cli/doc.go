// Parses flags, configures logging and runs the packaging pipeline.
//
// The command accepts the toolchain settings as its configuration surface:
//
//	--cppstd        C++ language standard (CRUXPKG_CPPSTD).
//	--os            Target operating system (CRUXPKG_OS).
//	--compiler      Compiler family or driver (CRUXPKG_COMPILER).
//	--build-type    Build type (CRUXPKG_BUILD_TYPE).
//	--arch          Target architecture (CRUXPKG_ARCH).
//
// Defaults describe the host. Output verbosity follows the usual flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// The process exit status identifies the first stage that failed; see
// [ExitCode].
package cli
