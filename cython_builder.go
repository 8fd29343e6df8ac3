package cythonext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CythonBuilder handles .pyx modules: cython translates them to C and the
// C compiler links the result into a shared object.
type CythonBuilder struct{}

// Name returns the builder name
func (b *CythonBuilder) Name() string {
	return "Cython"
}

// RequiredTools returns the tools needed for Cython builds
func (b *CythonBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "cython",
			Purpose: "Cython translator for .pyx sources",
		},
		{
			Name:         "cc",
			Alternatives: []string{"gcc", "clang"},
			Purpose:      "C compiler for generated sources",
		},
	}
}

// CheckTools verifies that cython and a C compiler are available
func (b *CythonBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the source file
func (b *CythonBuilder) CanBuild(source string) bool {
	return MatchesExtension(source, SourceExt)
}

// Build compiles the extension using the cython → cc workflow
func (b *CythonBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		ConfigureFunc: b.runCython,
		BuildFunc:     b.runCompiler,
		FindFunc:      findArtifact,
	})
}

// Clean removes generated C files and the built module
func (b *CythonBuilder) Clean(_ context.Context, config *BuildConfig, ext *Extension) error {
	for _, src := range ext.Sources {
		if !b.CanBuild(src) {
			continue
		}
		if err := removeIfExists(TempSourcePath(config, src)); err != nil {
			return err
		}
	}
	return removeIfExists(OutputPath(config, ext))
}

// runCython translates every Cython source and returns the list of C files
// to compile, keeping non-Cython sources in place.
func (b *CythonBuilder) runCython(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) ([]string, error) {
	cython := config.Cython
	if cython == "" {
		cython = "cython"
	}

	var compiled []string
	for _, src := range ext.Sources {
		if !b.CanBuild(src) {
			compiled = append(compiled, filepath.Join(config.ProjectDir, src))
			continue
		}

		generated := TempSourcePath(config, src)
		if err := os.MkdirAll(filepath.Dir(generated), 0o755); err != nil {
			return nil, err
		}

		args := b.cythonArgs(config, src, generated)
		if err := runCommand(ctx, config, config.ProjectDir, "Cython", cython, args, result); err != nil {
			return nil, err
		}
		compiled = append(compiled, generated)
	}

	return compiled, nil
}

func (b *CythonBuilder) cythonArgs(config *BuildConfig, source, generated string) []string {
	level := "-3"
	if config.Interpreter != nil {
		level = config.Interpreter.LanguageLevel()
	}

	args := []string{level}
	if config.Debug {
		args = append(args, "--gdb")
	}
	for _, dir := range config.IncludeDirs {
		args = append(args, "-I", dir)
	}
	return append(args, "-o", generated, source)
}

// runCompiler links the generated sources into the shared object.
func (b *CythonBuilder) runCompiler(ctx context.Context, config *BuildConfig, ext *Extension, sources []string, output string, result *BuildResult) error {
	compiler, err := resolveCompiler(config.Compiler, "CC", "cc", "gcc", "clang")
	if err != nil {
		return BuildError("Cython", result.Output, err)
	}

	args := compileArgs(config, ext, sources, output)
	return runCommand(ctx, config, config.ProjectDir, "Compile", compiler, args, result)
}

// findArtifact reports the shared object for ext, failing if the compiler
// exited cleanly without producing it.
func findArtifact(config *BuildConfig, ext *Extension) ([]string, error) {
	output := OutputPath(config, ext)
	info, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("expected artifact %s was not produced: %w", output, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("artifact %s is not a regular file", output)
	}
	return []string{output}, nil
}

// isCXXSource reports whether a source needs the C++ compiler.
func isCXXSource(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".cpp", ".cc", ".cxx":
		return true
	}
	return false
}
