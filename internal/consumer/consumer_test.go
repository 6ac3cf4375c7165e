package consumer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cruciblehq/cruxpkg/internal/build"
	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
	"github.com/google/go-cmp/cmp"
)

var settings = toolchain.Settings{
	CppStd:    "17",
	OS:        "Linux",
	Compiler:  "gcc",
	BuildType: "Debug",
	Arch:      "x86_64",
}

// Builds by writing a shell script at the binary path that exits with
// exitCode. A non-nil buildErr fails the build instead.
type fakeTool struct {
	binary     string
	exitCode   int
	buildErr   error
	configured native.Configuration
	calls      []string
}

func (f *fakeTool) Name() string { return "fake" }
func (f *fakeTool) Locate() (string, error) { return "/usr/bin/fake", nil }

func (f *fakeTool) Configure(_ context.Context, c native.Configuration) error {
	f.calls = append(f.calls, "configure")
	f.configured = c
	return nil
}

func (f *fakeTool) Build(_ context.Context, s native.Step) error {
	f.calls = append(f.calls, "build")
	if f.buildErr != nil {
		return f.buildErr
	}
	if f.binary == "" {
		return nil
	}
	p := filepath.Join(s.BuildDir, filepath.FromSlash(f.binary))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	script := fmt.Sprintf("#!/bin/sh\ntest -f ./marker || exit 99\nexit %d\n", f.exitCode)
	if err := os.WriteFile(p, []byte(script), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(filepath.Dir(p), "marker"), nil, 0644)
}

func descriptor() build.Descriptor {
	return build.DeclareHeaderOnly(build.Descriptor{
		Name:    "pure",
		Version: "0.0.1",
		Exports: []build.ExportRule{
			{Src: "LICENSE"},
			{Src: "include/pure", Dst: "include/pure"},
			{Src: "include/immer/immer", Dst: "include/immer", Optional: true},
		},
	})
}

// Creates a staged package with the given include roots.
func stagedPackage(t *testing.T, roots ...string) string {
	t.Helper()
	pkg := t.TempDir()
	for _, r := range roots {
		if err := os.MkdirAll(filepath.Join(pkg, filepath.FromSlash(r)), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return pkg
}

func options(t *testing.T) Options {
	return Options{
		Source:   t.TempDir(),
		BuildDir: filepath.Join(t.TempDir(), "consumer"),
		Binary:   "bin/test",
	}
}

func TestConfigureMissingIncludeRoot(t *testing.T) {
	tool := &fakeTool{}
	pkg := stagedPackage(t, "include/immer")

	_, err := Configure(context.Background(), tool, settings, pkg, descriptor(), options(t))
	if !errors.Is(err, build.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), "include/pure") {
		t.Fatalf("err = %q, want missing root named", err)
	}
	if len(tool.calls) != 0 {
		t.Fatalf("native tool invoked before layout check: %v", tool.calls)
	}
}

func TestConfigureWithoutDeclaredRootsRequiresInclude(t *testing.T) {
	d := build.Descriptor{Name: "bare", Version: "1"}

	_, err := Configure(context.Background(), &fakeTool{}, settings, t.TempDir(), d, options(t))
	if !errors.Is(err, build.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}

	if _, err := Configure(context.Background(), &fakeTool{}, settings, stagedPackage(t, "include"), d, options(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigureInvalidSettings(t *testing.T) {
	s := settings
	s.Arch = ""

	_, err := Configure(context.Background(), &fakeTool{}, s, stagedPackage(t, "include/pure"), descriptor(), options(t))
	if !errors.Is(err, build.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestConfigureExposesIncludeDir(t *testing.T) {
	tool := &fakeTool{}
	pkg := stagedPackage(t, "include/pure")
	opts := options(t)

	if _, err := Configure(context.Background(), tool, settings, pkg, descriptor(), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	include := filepath.Join(pkg, "include")
	if tool.configured.Source != opts.Source || tool.configured.BuildDir != opts.BuildDir {
		t.Fatalf("configuration = %+v", tool.configured)
	}
	wantDefs := []string{"-DCMAKE_PREFIX_PATH=" + pkg, "-DCMAKE_INCLUDE_PATH=" + include}
	if diff := cmp.Diff(wantDefs, tool.configured.Definitions); diff != "" {
		t.Fatalf("definitions mismatch (-want +got):\n%s", diff)
	}
	for _, name := range includePathVars {
		found := false
		for _, kv := range tool.configured.Env {
			if strings.HasPrefix(kv, name+"="+include) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s does not start with %s: %v", name, include, tool.configured.Env)
		}
	}
}

func TestIncludeEnvKeepsExistingPath(t *testing.T) {
	t.Setenv("CPATH", "/opt/include")
	env := includeEnv("/pkg/include")

	want := "CPATH=/pkg/include" + string(os.PathListSeparator) + "/opt/include"
	found := false
	for _, kv := range env {
		if kv == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("env = %v, want %q", env, want)
	}
}

func TestBuild(t *testing.T) {
	tool := &fakeTool{binary: "bin/test"}
	opts := options(t)
	c, err := Configure(context.Background(), tool, settings, stagedPackage(t, "include/pure"), descriptor(), opts)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	bin, err := Build(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(opts.BuildDir, "bin", "test"); bin != want {
		t.Fatalf("binary = %q, want %q", bin, want)
	}
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name string
		tool *fakeTool
	}{
		{"compilation fails", &fakeTool{binary: "bin/test", buildErr: fmt.Errorf("%w: exit 1", native.ErrToolFailed)}},
		{"no binary produced", &fakeTool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Configure(context.Background(), tt.tool, settings, stagedPackage(t, "include/pure"), descriptor(), options(t))
			if err != nil {
				t.Fatalf("Configure: %v", err)
			}
			_, err = Build(context.Background(), c)
			if !errors.Is(err, build.ErrBuild) {
				t.Fatalf("err = %v, want ErrBuild", err)
			}
		})
	}
}

// Writes an executable script exiting with code.
func script(t *testing.T, code int) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, "test")
	if err := os.WriteFile(p, []byte(fmt.Sprintf("#!/bin/sh\nexit %d\n", code)), 0755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunPass(t *testing.T) {
	res, err := Run(context.Background(), script(t, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Passed() || res.ExitCode != 0 {
		t.Fatalf("result = %+v, want pass", res)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), script(t, 1))
	if !errors.Is(err, build.ErrValidationFailure) {
		t.Fatalf("err = %v, want ErrValidationFailure", err)
	}
	if errors.Is(err, build.ErrLaunch) {
		t.Fatal("non-zero exit reported as launch failure")
	}
	if res == nil || res.Passed() || res.ExitCode != 1 {
		t.Fatalf("result = %+v, want fail with status 1", res)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	notExecutable := filepath.Join(t.TempDir(), "test")
	if err := os.WriteFile(notExecutable, []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, bin := range []string{filepath.Join(t.TempDir(), "missing"), notExecutable} {
		res, err := Run(context.Background(), bin)
		if !errors.Is(err, build.ErrLaunch) {
			t.Fatalf("%s: err = %v, want ErrLaunch", bin, err)
		}
		if errors.Is(err, build.ErrValidationFailure) {
			t.Fatalf("%s: launch failure reported as validation failure", bin)
		}
		if res != nil {
			t.Fatalf("%s: result = %+v, want nil", bin, res)
		}
	}
}

func TestValidateRunsFromBinaryDirectory(t *testing.T) {
	// The fake binary exits 99 unless a marker next to it is visible from
	// the working directory.
	tool := &fakeTool{binary: "bin/test"}
	res, err := Validate(context.Background(), tool, settings, stagedPackage(t, "include/pure"), descriptor(), options(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Passed() {
		t.Fatalf("result = %+v, want pass", res)
	}
}

func TestValidateFailureKeepsPackage(t *testing.T) {
	pkg := stagedPackage(t, "include/pure")
	tool := &fakeTool{binary: "bin/test", exitCode: 1}

	res, err := Validate(context.Background(), tool, settings, pkg, descriptor(), options(t))
	if !errors.Is(err, build.ErrValidationFailure) {
		t.Fatalf("err = %v, want ErrValidationFailure", err)
	}
	if res.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", res.ExitCode)
	}
	if _, err := os.Stat(filepath.Join(pkg, "include", "pure")); err != nil {
		t.Fatalf("staged package removed: %v", err)
	}
}
