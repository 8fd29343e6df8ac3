package cythonext

import (
	"context"
	"path/filepath"
)

// CBuilder handles extension modules written directly in C or C++.
//
// Common in:
//   - Hand-written CPython extension modules
//   - Modules wrapping an existing C library
//   - Generated C sources checked into the source tree
type CBuilder struct{}

// Name returns the builder name
func (b *CBuilder) Name() string {
	return "C"
}

// RequiredTools returns the tools needed for C builds
func (b *CBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "cc",
			Alternatives: []string{"gcc", "clang"},
			Purpose:      "C compiler",
		},
		{
			Name:         "c++",
			Alternatives: []string{"g++", "clang++"},
			Optional:     true,
			Purpose:      "C++ compiler for .cpp sources",
		},
	}
}

// CheckTools verifies that a compiler is available
func (b *CBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the source file
func (b *CBuilder) CanBuild(source string) bool {
	return MatchesExtension(source, ".c", ".cc", ".cpp", ".cxx")
}

// Build compiles the extension sources directly
func (b *CBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runCompiler,
		FindFunc:      findArtifact,
	})
}

// Clean removes the built module
func (b *CBuilder) Clean(_ context.Context, config *BuildConfig, ext *Extension) error {
	return removeIfExists(OutputPath(config, ext))
}

// noConfigure resolves sources against the project; nothing is generated.
func (b *CBuilder) noConfigure(_ context.Context, config *BuildConfig, ext *Extension, _ *BuildResult) ([]string, error) {
	sources := make([]string, 0, len(ext.Sources))
	for _, src := range ext.Sources {
		sources = append(sources, filepath.Join(config.ProjectDir, src))
	}
	return sources, nil
}

func (b *CBuilder) runCompiler(ctx context.Context, config *BuildConfig, ext *Extension, sources []string, output string, result *BuildResult) error {
	var (
		compiler string
		err      error
	)

	if b.needsCXX(ext) {
		compiler, err = resolveCompiler(config.CXXCompiler, "CXX", "c++", "g++", "clang++")
	} else {
		compiler, err = resolveCompiler(config.Compiler, "CC", "cc", "gcc", "clang")
	}
	if err != nil {
		return BuildError("C", result.Output, err)
	}

	args := compileArgs(config, ext, sources, output)
	return runCommand(ctx, config, config.ProjectDir, "Compile", compiler, args, result)
}

func (b *CBuilder) needsCXX(ext *Extension) bool {
	for _, src := range ext.Sources {
		if isCXXSource(src) {
			return true
		}
	}
	return false
}
