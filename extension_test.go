package cythonext

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareCoversEveryFlagPair(t *testing.T) {
	for _, mode := range []BuildMode{ModeOptimized, ModeDebug} {
		declarer, err := NewDeclarer(mode)
		require.NoError(t, err)

		for _, numeric := range []bool{false, true} {
			for _, parallel := range []bool{false, true} {
				t.Run(fmt.Sprintf("%s/numeric=%v/parallel=%v", mode, numeric, parallel), func(t *testing.T) {
					ext := declarer.Declare("mylibrary.compute", numeric, parallel)

					preset, err := PresetFor(mode, numeric)
					require.NoError(t, err)
					assert.Equal(t, preset.Name, ext.Preset)

					wantCompile := preset.CompileArgs
					wantLink := preset.LinkArgs
					if parallel {
						wantCompile = append([]string{"-fopenmp"}, wantCompile...)
						wantLink = append([]string{"-fopenmp"}, wantLink...)
					}

					if diff := cmp.Diff(wantCompile, ext.ExtraCompileArgs); diff != "" {
						t.Errorf("compile args mismatch (-want +got):\n%s", diff)
					}
					if diff := cmp.Diff(wantLink, ext.ExtraLinkArgs, cmpEmptyAsNil()); diff != "" {
						t.Errorf("link args mismatch (-want +got):\n%s", diff)
					}

					assert.Equal(t, parallel, ext.OpenMP)
					if numeric {
						assert.Equal(t, []string{"m"}, ext.Libraries)
					} else {
						assert.Nil(t, ext.Libraries)
					}
				})
			}
		}
	}
}

func TestDeclareDoesNotShareArgsBetweenExtensions(t *testing.T) {
	declarer, err := NewDeclarer(ModeOptimized)
	require.NoError(t, err)

	first := declarer.Declare("mylibrary.a", true, true)
	first.ExtraCompileArgs[0] = "-changed"

	second := declarer.Declare("mylibrary.b", true, true)
	assert.Equal(t, "-fopenmp", second.ExtraCompileArgs[0])
	assert.Equal(t, "-march=native", second.ExtraCompileArgs[1])
}

func TestNewDeclarerRejectsUnknownMode(t *testing.T) {
	declarer, err := NewDeclarer(BuildMode("profile"))
	assert.ErrorIs(t, err, ErrUnknownBuildMode)
	assert.Nil(t, declarer)
}

func TestSourcePath(t *testing.T) {
	sep := string(filepath.Separator)

	testCases := []struct {
		name string
		want string
	}{
		{"cython_module", "cython_module.pyx"},
		{"mylibrary.dostuff", "mylibrary" + sep + "dostuff.pyx"},
		{"mylibrary.submodule.helloworld", "mylibrary" + sep + "submodule" + sep + "helloworld.pyx"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SourcePath(tc.name))
		})
	}
}

func TestDeclareAllPreservesOrder(t *testing.T) {
	declarer, err := NewDeclarer(ModeDebug)
	require.NoError(t, err)

	specs := []ExtensionSpec{
		{Name: "mylibrary.dostuff"},
		{Name: "mylibrary.compute", Numeric: true},
		{Name: "mylibrary.submodule.helloworld"},
		{Name: "mylibrary.wrapped", Sources: []string{"src/wrapped.c", "src/helper.c"}},
	}

	extensions := declarer.DeclareAll(specs)
	require.Len(t, extensions, len(specs))

	for i, ext := range extensions {
		assert.Equal(t, specs[i].Name, ext.Name)
	}
	assert.Equal(t, "numeric-debug", extensions[1].Preset)
	assert.Equal(t, []string{filepath.FromSlash("src/wrapped.c"), filepath.FromSlash("src/helper.c")}, extensions[3].Sources)
}

func TestExtensionPathParts(t *testing.T) {
	ext := &Extension{Name: "mylibrary.submodule.helloworld"}
	assert.Equal(t, filepath.Join("mylibrary", "submodule"), ext.PackagePath())
	assert.Equal(t, "helloworld", ext.BaseName())

	top := &Extension{Name: "cython_module"}
	assert.Equal(t, "", top.PackagePath())
	assert.Equal(t, "cython_module", top.BaseName())
	assert.Equal(t, "", top.PrimarySource())
}

func TestValidateModuleName(t *testing.T) {
	valid := []string{"cython_module", "mylibrary.compute", "a.b.c"}
	for _, name := range valid {
		assert.NoError(t, ValidateModuleName(name), name)
	}

	invalid := []string{"", ".compute", "mylibrary.", "a..b", "my library.x", "a/b"}
	for _, name := range invalid {
		assert.Error(t, ValidateModuleName(name), name)
	}
}

// cmpEmptyAsNil treats nil and empty slices as equal.
func cmpEmptyAsNil() cmp.Option {
	return cmp.FilterValues(func(x, y []string) bool {
		return len(x) == 0 && len(y) == 0
	}, cmp.Ignore())
}
