package build

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cruciblehq/cruxpkg/internal/paths"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (

	// Media type recorded for C and C++ headers.
	MediaTypeHeader = "text/x-c++hdr"

	// Media type recorded for every other file.
	MediaTypeFile = "application/octet-stream"

	// Suffix of the package info file written next to the package root.
	InfoSuffix = ".info.json"
)

// Extensions treated as headers.
var headerExts = []string{".h", ".hh", ".hpp", ".hxx", ".h++", ".inl", ".ipp", ".tpp"}

// Describes a staged package for downstream tooling.
//
// Package info lives next to the package root, never inside it, so the staged
// layout stays exactly what the export rules produce.
type PackageInfo struct {
	Annotations  map[string]string    `json:"annotations"`
	HeaderOnly   bool                 `json:"headerOnly"`
	IncludeRoots []string             `json:"includeRoots,omitempty"`
	Settings     *toolchain.Settings  `json:"settings,omitempty"` // Omitted for header-only packages.
	Digest       digest.Digest        `json:"digest"`             // Digest over every file's path and content.
	Files        []ocispec.Descriptor `json:"files"`
}

// Describes the package staged under root.
//
// Every regular file under root is listed with its digest, size and path (as
// the title annotation), sorted by path. The aggregate digest changes if and
// only if a path or a file's content changes, so two stagings of the same
// sources compare equal.
func Describe(root string, d Descriptor, settings toolchain.Settings) (*PackageInfo, error) {
	info := &PackageInfo{
		Annotations:  annotations(d),
		HeaderOnly:   d.HeaderOnly,
		IncludeRoots: d.IncludeRoots(),
	}
	if !d.HeaderOnly {
		s := settings
		info.Settings = &s
	}

	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		desc, err := describeFile(p)
		if err != nil {
			return err
		}
		desc.Annotations = map[string]string{ocispec.AnnotationTitle: relSlash(root, p)}
		info.Files = append(info.Files, desc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	slices.SortFunc(info.Files, func(a, b ocispec.Descriptor) int {
		return strings.Compare(a.Annotations[ocispec.AnnotationTitle], b.Annotations[ocispec.AnnotationTitle])
	})

	var b strings.Builder
	for _, f := range info.Files {
		fmt.Fprintf(&b, "%s  %s\n", f.Digest, f.Annotations[ocispec.AnnotationTitle])
	}
	info.Digest = digest.FromString(b.String())

	return info, nil
}

// Writes package info as indented JSON to root + ".info.json" and returns the
// path.
func WriteInfo(root string, info *PackageInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}

	p := filepath.Clean(root) + InfoSuffix
	if err := os.WriteFile(p, append(data, '\n'), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	return p, nil
}

func describeFile(p string) (ocispec.Descriptor, error) {
	f, err := os.Open(p)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	dgst, err := digest.FromReader(f)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	return ocispec.Descriptor{
		MediaType: mediaType(p),
		Digest:    dgst,
		Size:      st.Size(),
	}, nil
}

func mediaType(p string) string {
	ext := strings.ToLower(path.Ext(filepath.ToSlash(p)))
	if slices.Contains(headerExts, ext) {
		return MediaTypeHeader
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return MediaTypeFile
}

// Maps recipe metadata onto the pre-defined OCI annotation keys.
func annotations(d Descriptor) map[string]string {
	a := map[string]string{
		ocispec.AnnotationTitle:   d.Name,
		ocispec.AnnotationVersion: d.Version,
	}
	for k, v := range map[string]string{
		ocispec.AnnotationURL:         d.URL,
		ocispec.AnnotationDescription: d.Description,
		ocispec.AnnotationLicenses:    d.License,
		ocispec.AnnotationAuthors:     d.Author,
	} {
		if v != "" {
			a[k] = v
		}
	}
	return a
}
