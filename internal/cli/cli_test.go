package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	cythonext "github.com/contriboss/cython-extension-go"
)

var templateRoot = filepath.Join("..", "..", "testdata", "template")

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test", &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type shownConfig struct {
	BuildMode  string `yaml:"build_mode"`
	Version    string `yaml:"version"`
	Extensions []struct {
		Name             string   `yaml:"name"`
		Preset           string   `yaml:"preset"`
		OpenMP           bool     `yaml:"openmp"`
		ExtraCompileArgs []string `yaml:"extra_compile_args"`
		Libraries        []string `yaml:"libraries"`
	} `yaml:"extensions"`
}

func TestShowYAMLManifest(t *testing.T) {
	stdout, stderr, err := run(t, "show", "--root", templateRoot, "--no-color")
	require.NoError(t, err, stderr)

	var shown shownConfig
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &shown))

	assert.Equal(t, "optimized", shown.BuildMode)
	assert.Equal(t, "0.1.0", shown.Version)
	require.Len(t, shown.Extensions, 3)
	assert.Equal(t, "mylibrary.compute", shown.Extensions[1].Name)
	assert.Equal(t, "numeric-optimized", shown.Extensions[1].Preset)
	assert.Equal(t, []string{"m"}, shown.Extensions[1].Libraries)

	assert.Contains(t, stderr, "INFO: build configuration selected: optimized")
}

func TestShowHCLManifest(t *testing.T) {
	stdout, stderr, err := run(t, "show", "--root", templateRoot, "--config", "cythonext.hcl", "--no-color")
	require.NoError(t, err, stderr)

	var shown shownConfig
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &shown))

	assert.Equal(t, "debug", shown.BuildMode)
	assert.True(t, shown.Extensions[1].OpenMP)
	assert.Equal(t, []string{"-fopenmp", "-march=native", "-O0", "-g"}, shown.Extensions[1].ExtraCompileArgs)
}

func TestModeFromEnvironment(t *testing.T) {
	t.Setenv("CYTHONEXT_MODE", "debug")

	stdout, _, err := run(t, "show", "--root", templateRoot, "--no-color")
	require.NoError(t, err)
	assert.True(t, strings.Contains(stdout, "build_mode: debug"), stdout)
}

func TestUnknownModeFails(t *testing.T) {
	stdout, stderr, err := run(t, "show", "--root", templateRoot, "--mode", "turbo", "--no-color")

	assert.ErrorIs(t, err, cythonext.ErrUnknownBuildMode)
	assert.Empty(t, stdout)
	assert.NotContains(t, stderr, "build configuration selected")
}

func TestMissingManifest(t *testing.T) {
	_, _, err := run(t, "show", "--root", t.TempDir())
	assert.ErrorContains(t, err, "no manifest found")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cythonext test\n", stdout)
}

func TestWatchDirs(t *testing.T) {
	cfg := &cythonext.Configuration{
		Root:    "/src/proj",
		Project: &cythonext.Project{IncludeDirs: []string{".", "/opt/include"}},
		Extensions: []*cythonext.Extension{
			{Name: "mylibrary.compute", Sources: []string{filepath.Join("mylibrary", "compute.pyx")}},
			{Name: "mylibrary.dostuff", Sources: []string{filepath.Join("mylibrary", "dostuff.pyx")}},
		},
	}

	assert.Equal(t, []string{"/opt/include", "/src/proj", filepath.Join("/src/proj", "mylibrary")}, watchDirs(cfg))
}

func TestRootCommandBindsEveryFlag(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRootCommand("test", &bytes.Buffer{}, &bytes.Buffer{})
	})

	stdout, _, err := run(t, "show", "--root", templateRoot, "--mode", "debug", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "build_mode: debug")
}

func TestTriggersRebuild(t *testing.T) {
	cfg := &cythonext.Configuration{
		Root:    "/src/proj",
		Project: &cythonext.Project{},
		Extensions: []*cythonext.Extension{
			{Name: "mylibrary.compute", Sources: []string{filepath.Join("mylibrary", "compute.pyx")}},
			{Name: "mylibrary.wrapper", Sources: []string{filepath.Join("mylibrary", "wrapper.c")}},
		},
	}
	pkg := filepath.Join("/src/proj", "mylibrary")

	testCases := []struct {
		name string
		want bool
	}{
		{"compute.pyx", true},
		{"compute.pxd", true},
		{"helpers.pxi", true},
		{"wrapper.c", true},
		{"vendor.h", true},
		{"compute.c", false},
		{"compute.so", false},
		{"notes.txt", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, triggersRebuild(cfg, filepath.Join(pkg, tc.name)))
		})
	}
}
