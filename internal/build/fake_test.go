package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Records calls and fails on demand. Keys of buildErrs are target names; ""
// is the default target.
type fakeTool struct {
	locateErr    error
	configureErr error
	buildErrs    map[string]error
	calls        []string
}

func (f *fakeTool) Name() string { return "fake" }

func (f *fakeTool) Locate() (string, error) {
	f.calls = append(f.calls, "locate")
	return "/usr/bin/fake", f.locateErr
}

func (f *fakeTool) Configure(_ context.Context, c native.Configuration) error {
	f.calls = append(f.calls, "configure")
	return f.configureErr
}

func (f *fakeTool) Build(_ context.Context, s native.Step) error {
	f.calls = append(f.calls, "build:"+s.Target)
	return f.buildErrs[s.Target]
}

func toolFailure(code int) error {
	return fmt.Errorf("%w: fake exited with code %d", native.ErrToolFailed, code)
}

var testSettings = toolchain.Settings{
	CppStd:    "17",
	OS:        "Linux",
	Compiler:  "gcc",
	BuildType: "Release",
	Arch:      "x86_64",
}

// Creates files under root. Keys are slash paths, values contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// Returns every regular file under root as slash path -> content.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// Mirrors the pure-cpp recipe.
func pureDescriptor() Descriptor {
	return DeclareHeaderOnly(Descriptor{
		Name:    "pure",
		Version: "0.0.1",
		License: "MIT",
		Exports: []ExportRule{
			{Src: "LICENSE"},
			{Src: "include/pure", Dst: "include/pure"},
			{Src: "include/immer/immer", Dst: "include/immer", Optional: true},
		},
	}.withDefaults())
}
