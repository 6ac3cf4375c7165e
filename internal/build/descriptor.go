package build

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/containerd/errdefs"
)

const (

	// Target built and run to verify the source tree before staging.
	DefaultTarget = "check"

	// Consumer program source directory, relative to the source root.
	DefaultConsumerSource = "test_package"

	// Consumer binary, relative to the consumer build directory.
	DefaultConsumerBinary = "bin/test"

	// Export pattern matching every file.
	matchAll = "*"
)

// Identifies one package and how to build, stage and validate it.
//
// A descriptor is a value: it is loaded once per run and never modified.
// Functions that derive a new descriptor return a copy.
type Descriptor struct {
	Name        string       `yaml:"name"`
	Version     string       `yaml:"version"`
	URL         string       `yaml:"url"`
	Description string       `yaml:"description"`
	License     string       `yaml:"license"`
	Author      string       `yaml:"author"`
	HeaderOnly  bool         `yaml:"header_only"`
	Exports     []ExportRule `yaml:"exports"`
	Target      TargetSpec   `yaml:"build"`
	Consumer    ConsumerSpec `yaml:"consumer"`
}

// Maps a source subtree onto a destination subtree of the package.
type ExportRule struct {
	Src      string `yaml:"src"`      // Path relative to the source root. A file or a directory.
	Dst      string `yaml:"dst"`      // Path relative to the package root.
	Pattern  string `yaml:"pattern"`  // File name glob for directory sources. Empty matches all.
	Optional bool   `yaml:"optional"` // Source may be absent without a warning.
}

// Names the verification target and extra native definitions.
type TargetSpec struct {
	Name        string   `yaml:"target"`
	Definitions []string `yaml:"definitions"`
}

// Locates the consumer program used to validate a staged package.
type ConsumerSpec struct {
	Source string `yaml:"source"` // Directory relative to the source root.
	Binary string `yaml:"binary"` // Executable relative to the consumer build directory.
}

// Returns a copy of d marked as header-only.
//
// Header-only packages carry no compiled binary; consumers compile against
// the staged headers directly. The flag is metadata for the consumer
// validator and the package info; it does not change how the orchestrator
// builds or stages.
func DeclareHeaderOnly(d Descriptor) Descriptor {
	c := d.clone()
	c.HeaderOnly = true
	return c
}

// Returns the include roots consumers rely on: the destinations of required
// export rules that live under "include/". Sorted and without duplicates.
func (d Descriptor) IncludeRoots() []string {
	var roots []string
	for _, r := range d.Exports {
		if r.Optional {
			continue
		}
		dst := path.Clean(filepath.ToSlash(r.Dst))
		if strings.HasPrefix(dst, "include/") {
			roots = append(roots, dst)
		}
	}
	slices.Sort(roots)
	return slices.Compact(roots)
}

// Returns the verification target, defaulting to "check".
func (d Descriptor) TargetName() string {
	if d.Target.Name == "" {
		return DefaultTarget
	}
	return d.Target.Name
}

// Checks that the descriptor names a package and that every export rule stays
// inside its root. The error matches [errdefs.ErrInvalidArgument].
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: package name is required", errdefs.ErrInvalidArgument)
	}
	if strings.TrimSpace(d.Version) == "" {
		return fmt.Errorf("%w: package version is required", errdefs.ErrInvalidArgument)
	}

	for i, r := range d.Exports {
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: export %d: %w", errdefs.ErrInvalidArgument, i+1, err)
		}
	}

	return nil
}

// Returns a copy of d with defaults filled in.
func (d Descriptor) withDefaults() Descriptor {
	c := d.clone()
	if c.Target.Name == "" {
		c.Target.Name = DefaultTarget
	}
	if c.Consumer.Source == "" {
		c.Consumer.Source = DefaultConsumerSource
	}
	if c.Consumer.Binary == "" {
		c.Consumer.Binary = DefaultConsumerBinary
	}
	for i := range c.Exports {
		if c.Exports[i].Pattern == "" {
			c.Exports[i].Pattern = matchAll
		}
	}
	return c
}

func (d Descriptor) clone() Descriptor {
	c := d
	c.Exports = slices.Clone(d.Exports)
	c.Target.Definitions = slices.Clone(d.Target.Definitions)
	return c
}

func (r ExportRule) validate() error {
	if r.Src == "" {
		return fmt.Errorf("src is required")
	}
	if !filepath.IsLocal(filepath.FromSlash(r.Src)) {
		return fmt.Errorf("src %q escapes the source root", r.Src)
	}
	if r.Dst != "" && r.Dst != "." && !filepath.IsLocal(filepath.FromSlash(r.Dst)) {
		return fmt.Errorf("dst %q escapes the package root", r.Dst)
	}
	if r.Pattern != "" {
		if _, err := filepath.Match(r.Pattern, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", r.Pattern, err)
		}
	}
	return nil
}
