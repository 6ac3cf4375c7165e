package toolchain

import (
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

// C and C++ driver executables for each compiler family.
var compilers = map[string][2]string{
	"gcc":         {"gcc", "g++"},
	"clang":       {"clang", "clang++"},
	"apple-clang": {"clang", "clang++"},
	"msvc":        {"cl", "cl"},
}

// Returns the C and C++ compiler executables for the compiler axis.
//
// A compiler value that is not a known family is treated as the path or name
// of a C++ driver and returned for both languages. The error matches
// [errdefs.ErrInvalidArgument] if the axis is empty.
func (s Settings) CompilerDrivers() (cc, cxx string, err error) {
	name := strings.TrimSpace(s.Compiler)
	if name == "" {
		return "", "", fmt.Errorf("%w: compiler not set", errdefs.ErrInvalidArgument)
	}
	if d, ok := compilers[strings.ToLower(name)]; ok {
		return d[0], d[1], nil
	}
	return name, name, nil
}

// System names understood by the native build tool, by OS axis value.
var systemNames = map[string]string{
	"linux":   "Linux",
	"macos":   "Darwin",
	"windows": "Windows",
	"freebsd": "FreeBSD",
	"android": "Android",
	"ios":     "iOS",
}

// Processor names understood by the native build tool, by arch axis value.
var processors = map[string]string{
	"x86":    "i686",
	"x86_64": "x86_64",
	"armv7":  "armv7-a",
	"armv8":  "aarch64",
}

// Architecture names for Apple targets, by arch axis value.
var appleArchs = map[string]string{
	"x86_64": "x86_64",
	"armv8":  "arm64",
}

// Returns native build tool cache definitions for the settings, as
// "-DNAME=value" arguments. Settings must be valid.
//
// Settings whose os or arch differ from the host also select the target
// system, so the native tool cross-compiles instead of building for the host.
func (s Settings) Definitions() []string {
	return s.definitionsFor(Host())
}

func (s Settings) definitionsFor(host Settings) []string {
	std, _ := s.Standard()
	ext := "OFF"
	if s.Extensions() {
		ext = "ON"
	}

	defs := []string{
		"-DCMAKE_BUILD_TYPE=" + s.CanonicalBuildType(),
		"-DCMAKE_CXX_STANDARD=" + std,
		"-DCMAKE_CXX_STANDARD_REQUIRED=ON",
		"-DCMAKE_CXX_EXTENSIONS=" + ext,
	}

	if cc, cxx, err := s.CompilerDrivers(); err == nil && !strings.EqualFold(s.Compiler, "msvc") {
		defs = append(defs,
			"-DCMAKE_C_COMPILER="+cc,
			"-DCMAKE_CXX_COMPILER="+cxx,
		)
	}

	return append(defs, s.targetDefinitions(host)...)
}

// Target system definitions, empty when os and arch both match the host.
func (s Settings) targetDefinitions(host Settings) []string {
	if sameAxis(s.OS, host.OS) && sameAxis(s.Arch, host.Arch) {
		return nil
	}

	defs := []string{
		"-DCMAKE_SYSTEM_NAME=" + lookup(systemNames, s.OS),
		"-DCMAKE_SYSTEM_PROCESSOR=" + lookup(processors, s.Arch),
	}
	if strings.EqualFold(strings.TrimSpace(s.OS), "macos") {
		defs = append(defs, "-DCMAKE_OSX_ARCHITECTURES="+lookup(appleArchs, s.Arch))
	}
	return defs
}

func sameAxis(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Returns the mapped spelling of value, or value itself if unmapped.
func lookup(names map[string]string, value string) string {
	value = strings.TrimSpace(value)
	if name, ok := names[strings.ToLower(value)]; ok {
		return name
	}
	return value
}
