package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/containerd/errdefs"
	"gopkg.in/yaml.v3"
)

// Name of the recipe file at the root of a source tree.
const RecipeFile = "cruxpkg.yaml"

// Loads the package descriptor from the recipe in a source tree.
//
// Unknown keys are rejected so typos in export rules fail loudly instead of
// silently producing an incomplete package. Defaults are applied and the
// descriptor is validated. A recipe declaring header_only is passed through
// [DeclareHeaderOnly]. All failures match [ErrConfiguration].
func LoadDescriptor(sourceRoot string) (Descriptor, error) {
	path := filepath.Join(sourceRoot, RecipeFile)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Descriptor{}, fmt.Errorf("%w: %w: no %s in %s", ErrConfiguration, errdefs.ErrNotFound, RecipeFile, sourceRoot)
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer f.Close()

	d, err := ParseDescriptor(f)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("loaded recipe", "path", path, "name", d.Name, "version", d.Version, "exports", len(d.Exports))

	return d, nil
}

// Decodes and validates a descriptor from YAML.
func ParseDescriptor(r io.Reader) (Descriptor, error) {
	var d Descriptor

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return Descriptor{}, fmt.Errorf("%w: empty recipe", ErrConfiguration)
		}
		return Descriptor{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if err := d.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	d = d.withDefaults()
	if d.HeaderOnly {
		d = DeclareHeaderOnly(d)
	}

	return d, nil
}
