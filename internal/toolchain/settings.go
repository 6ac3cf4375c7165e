package toolchain

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"
)

// Environment axes for one build. Supplied by the invoker and read-only
// afterwards.
type Settings struct {
	CppStd    string `yaml:"cppstd" json:"cppstd"`         // Language standard, e.g. "17" or "gnu17".
	OS        string `yaml:"os" json:"os"`                 // Target OS, e.g. "Linux".
	Compiler  string `yaml:"compiler" json:"compiler"`     // Compiler family, e.g. "gcc" or "clang".
	BuildType string `yaml:"build_type" json:"build_type"` // "Debug", "Release", "RelWithDebInfo" or "MinSizeRel".
	Arch      string `yaml:"arch" json:"arch"`             // Target architecture, e.g. "x86_64".
}

// Build types understood by the native build tool.
var buildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// Returns an error naming every missing axis, or a malformed one.
//
// The error matches [errdefs.ErrInvalidArgument].
func (s Settings) Validate() error {
	var missing []string
	for _, axis := range s.axes() {
		if strings.TrimSpace(axis.value) == "" {
			missing = append(missing, axis.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing toolchain settings: %s", errdefs.ErrInvalidArgument, strings.Join(missing, ", "))
	}

	if _, err := s.Standard(); err != nil {
		return err
	}

	if canonicalBuildType(s.BuildType) == "" {
		return fmt.Errorf("%w: build_type %q, want one of %s", errdefs.ErrInvalidArgument, s.BuildType, strings.Join(buildTypes, ", "))
	}

	return nil
}

// Returns the numeric language standard and whether GNU extensions are
// requested. "gnu17" yields ("17", true).
func (s Settings) Standard() (string, error) {
	std := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.CppStd)), "gnu")
	switch std {
	case "98", "11", "14", "17", "20", "23":
		return std, nil
	}
	return "", fmt.Errorf("%w: cppstd %q is not a C++ standard", errdefs.ErrInvalidArgument, s.CppStd)
}

// Whether the standard requests GNU extensions.
func (s Settings) Extensions() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.CppStd)), "gnu")
}

// Returns the build type spelled the way the native build tool expects.
func (s Settings) CanonicalBuildType() string {
	return canonicalBuildType(s.BuildType)
}

// Returns a stable content digest of the axes.
//
// Two settings values have the same ID if and only if every axis is equal
// after trimming. The encoded form is the 12-character prefix of the hex
// digest, short enough for directory names.
func (s Settings) ID() string {
	var b strings.Builder
	for _, axis := range s.axes() {
		fmt.Fprintf(&b, "%s=%s\n", axis.name, strings.TrimSpace(axis.value))
	}
	return digest.FromString(b.String()).Encoded()[:12]
}

// Renders the settings as "name=value" pairs in axis order.
func (s Settings) String() string {
	parts := make([]string, 0, 5)
	for _, axis := range s.axes() {
		parts = append(parts, axis.name+"="+axis.value)
	}
	return strings.Join(parts, " ")
}

type axis struct {
	name  string
	value string
}

func (s Settings) axes() []axis {
	return []axis{
		{"cppstd", s.CppStd},
		{"os", s.OS},
		{"compiler", s.Compiler},
		{"build_type", s.BuildType},
		{"arch", s.Arch},
	}
}

func canonicalBuildType(bt string) string {
	for _, t := range buildTypes {
		if strings.EqualFold(t, strings.TrimSpace(bt)) {
			return t
		}
	}
	return ""
}

// Returns settings describing the host, used as CLI defaults.
func Host() Settings {
	return Settings{
		CppStd:    "17",
		OS:        HostOS(),
		Compiler:  HostCompiler(),
		BuildType: "Release",
		Arch:      HostArch(),
	}
}

// Returns the host OS in the spelling used by settings.
func HostOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "Macos"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	default:
		return "Linux"
	}
}

// Returns the host architecture in the spelling used by settings.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	default:
		return runtime.GOARCH
	}
}

// Returns the platform's default compiler family.
func HostCompiler() string {
	switch runtime.GOOS {
	case "darwin":
		return "apple-clang"
	case "windows":
		return "msvc"
	default:
		return "gcc"
	}
}
