package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruxpkg/internal/paths"
)

// Applies one export rule, copying from the source root into the package root.
//
// A directory source is walked recursively; every regular file whose name
// matches the rule's pattern is copied to the same relative path under the
// destination. A file source is copied to the destination itself, or into
// the package root under its own name when the destination is empty. A
// missing source is not an error. Returns the written paths relative to the
// package root, in slash form.
func applyExport(srcRoot, pkgRoot string, rule ExportRule) ([]string, error) {
	src := filepath.Join(srcRoot, filepath.FromSlash(rule.Src))

	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		logMissingSource(rule)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if !info.IsDir() {
		dst := filepath.Join(pkgRoot, filepath.FromSlash(rule.Dst))
		if rule.Dst == "" || rule.Dst == "." {
			dst = filepath.Join(pkgRoot, filepath.Base(src))
		}
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCopy, err)
		}
		return []string{relSlash(pkgRoot, dst)}, nil
	}

	written, err := copyDir(src, filepath.Join(pkgRoot, filepath.FromSlash(rule.Dst)), patternOf(rule))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCopy, err)
	}

	for i, w := range written {
		written[i] = relSlash(pkgRoot, w)
	}

	slog.Debug("export", "src", rule.Src, "dst", rule.Dst, "files", len(written))

	return written, nil
}

// Copies every regular file under srcDir whose base name matches pattern to
// the same relative path under dstDir. Symlinks to regular files are copied
// as files; symlinks to directories are not followed.
func copyDir(srcDir, dstDir, pattern string) ([]string, error) {
	var written []string

	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				slog.Debug("skipping symlink", "path", path)
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		dst := filepath.Join(dstDir, rel)
		if err := copyFile(path, dst); err != nil {
			return err
		}
		written = append(written, dst)
		return nil
	})

	return written, err
}

// Copies a single file, creating parent directories. An existing destination
// is overwritten and takes the source's permission bits, so copying the same
// file twice yields the same result.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if prev, err := os.Stat(dst); err == nil && os.SameFile(info, prev) {
		return fmt.Errorf("%s and %s are the same file", src, dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), paths.DefaultDirMode); err != nil {
		return err
	}

	// A read-only file from an earlier run must still be overwritable.
	if prev, err := os.Lstat(dst); err == nil && prev.Mode().Perm()&0200 == 0 {
		if err := os.Chmod(dst, prev.Mode().Perm()|0200); err != nil {
			return err
		}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chmod(dst, info.Mode().Perm())
}

// Fails if staging into root could write over the sources it reads.
//
// The package root may not be the source root, nor lie inside a rule's
// source. A rule's destination may not be its own source or lie inside it.
// Paths are compared after resolving symlinks where they exist.
func checkOverlap(srcRoot, pkgRoot string, d Descriptor) error {
	src, err := resolve(srcRoot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	root, err := resolve(pkgRoot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if root == src {
		return fmt.Errorf("%w: package root %s is the source root", ErrConfiguration, pkgRoot)
	}

	for _, rule := range d.Exports {
		from := filepath.Join(src, filepath.FromSlash(rule.Src))
		to := filepath.Join(root, filepath.FromSlash(rule.Dst))
		if within(from, root) || within(from, to) {
			return fmt.Errorf("%w: export %s would write into its own source (package root %s)", ErrConfiguration, rule.Src, pkgRoot)
		}
	}
	return nil
}

// Returns p absolute and, if it exists, with symlinks resolved. A missing
// path is resolved through its closest existing parent.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	var rest []string
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if filepath.Dir(dir) == dir {
			return abs, nil
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
	}
}

// Whether path is parent or lies under it.
func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	return err == nil && (rel == "." || filepath.IsLocal(rel))
}

// Absent sources are tolerated: bundled dependencies and the license are
// optional components. Rules not marked optional still get a warning, since
// a consumer expecting those files would otherwise only fail at its own
// build time.
func logMissingSource(rule ExportRule) {
	if rule.Optional {
		slog.Debug("optional export source absent, skipping", "src", rule.Src)
		return
	}
	slog.Warn("export source absent, skipping", "src", rule.Src, "dst", rule.Dst)
}

func patternOf(rule ExportRule) string {
	if rule.Pattern == "" {
		return matchAll
	}
	return rule.Pattern
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
