package native

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/cruciblehq/cruxpkg/internal/runtime"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
	"github.com/google/go-cmp/cmp"
)

var settings = toolchain.Settings{
	CppStd:    "17",
	OS:        "Linux",
	Compiler:  "clang",
	BuildType: "Debug",
	Arch:      "x86_64",
}

// Writes a fake cmake that records its arguments and exits with $FAKE_EXIT.
func fakeCMake(t *testing.T) (path, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "cmake")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\necho diagnostics >&2\nexit ${FAKE_EXIT:-0}\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path, argsFile
}

func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestConfigureArgs(t *testing.T) {
	c := &CMake{Generator: "Ninja"}
	got := c.configureArgs(Configuration{
		Source:      "/src",
		BuildDir:    "/build",
		Settings:    settings,
		Definitions: []string{"-DEXTRA=1"},
	})

	want := append([]string{"cmake", "-S", "/src", "-B", "/build", "-G", "Ninja"}, settings.Definitions()...)
	want = append(want, "-DEXTRA=1")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("configureArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want []string
	}{
		{
			name: "default target",
			step: Step{BuildDir: "/build"},
			want: []string{"cmake", "--build", "/build"},
		},
		{
			name: "named target",
			step: Step{BuildDir: "/build", Target: "check"},
			want: []string{"cmake", "--build", "/build", "--target", "check"},
		},
		{
			name: "multi-config",
			step: Step{BuildDir: "/build", Target: "check", BuildType: "Release"},
			want: []string{"cmake", "--build", "/build", "--target", "check", "--config", "Release"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&CMake{}).buildArgs(tt.step)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("buildArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigureRunsTool(t *testing.T) {
	path, argsFile := fakeCMake(t)
	build := filepath.Join(t.TempDir(), "nested", "build")

	var stderr bytes.Buffer
	c := &CMake{Path: path, Stdout: &bytes.Buffer{}, Stderr: &stderr}
	err := c.Configure(context.Background(), Configuration{
		Source:   "/src",
		BuildDir: build,
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(build); err != nil {
		t.Fatalf("build dir not created: %v", err)
	}

	args := readArgs(t, argsFile)
	if args[0] != "-S" || args[1] != "/src" || args[2] != "-B" || args[3] != build {
		t.Fatalf("args = %v", args)
	}

	if stderr.String() != "diagnostics\n" {
		t.Fatalf("stderr = %q, want passthrough", stderr.String())
	}
}

func TestBuildFailure(t *testing.T) {
	path, _ := fakeCMake(t)
	c := &CMake{Path: path, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := c.Build(context.Background(), Step{
		BuildDir: t.TempDir(),
		Target:   "check",
		Env:      []string{"FAKE_EXIT=2"},
	})
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("err = %v, want ErrToolFailed", err)
	}
	if !strings.Contains(err.Error(), "code 2") {
		t.Fatalf("err = %q, want exit code", err)
	}
}

func TestBuildMissingTool(t *testing.T) {
	c := &CMake{Path: filepath.Join(t.TempDir(), "cmake")}
	err := c.Build(context.Background(), Step{BuildDir: t.TempDir()})
	if !errors.Is(err, runtime.ErrLaunch) {
		t.Fatalf("err = %v, want runtime.ErrLaunch", err)
	}
	if errors.Is(err, ErrToolFailed) {
		t.Fatal("launch failure reported as tool failure")
	}
}

func TestLocate(t *testing.T) {
	path, _ := fakeCMake(t)
	got, err := (&CMake{Path: path}).Locate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Fatalf("Locate = %q, want %q", got, path)
	}

	_, err = (&CMake{Path: "cruxpkg-no-such-cmake"}).Locate()
	if !errdefs.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
