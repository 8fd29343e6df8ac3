package cythonext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// execLookPath is exec.LookPath, replaced in tests.
var execLookPath = exec.LookPath

// runCommonBuild executes the standard build process.
//
//  1. Skip the extension if its artifact is newer than every source
//  2. Call ConfigureFunc to prepare the sources
//  3. Call BuildFunc to compile them into the output path
//  4. Call FindFunc to locate compiled files
//
// If any step fails, processing stops and the error is returned
// with Success=false.
func runCommonBuild(ctx context.Context, config *BuildConfig, ext *Extension, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Extension: ext.Name,
		Success:   false,
		Output:    []string{},
	}

	output := OutputPath(config, ext)

	if !config.Force && upToDate(config, ext, output) {
		result.Output = append(result.Output, fmt.Sprintf("skipping '%s' extension (up-to-date)", ext.Name))
		result.Artifacts = []string{output}
		result.Skipped = true
		result.Success = true
		return result, nil
	}

	// Step 1: Configure/prepare the sources
	sources, err := steps.ConfigureFunc(ctx, config, ext, result)
	if err != nil {
		result.Error = err
		return result, err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Build/compile the extension
	if err := steps.BuildFunc(ctx, config, ext, sources, output, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Find the built extension files
	artifacts, err := steps.FindFunc(config, ext)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Artifacts = artifacts
	result.Success = true
	return result, nil
}

// OutputPath returns where the shared object for ext is written.
//
// In-place builds place it beside the module's package directory inside
// the project; other builds place it under BuildLib.
func OutputPath(config *BuildConfig, ext *Extension) string {
	suffix := ".so"
	if config.Interpreter != nil && config.Interpreter.ExtSuffix != "" {
		suffix = config.Interpreter.ExtSuffix
	}

	base := config.BuildLib
	if config.Inplace {
		base = config.ProjectDir
	}

	return filepath.Join(base, ext.PackagePath(), ext.BaseName()+suffix)
}

// TempSourcePath returns where the generated C file for a Cython source is
// written.
func TempSourcePath(config *BuildConfig, source string) string {
	generated := strings.TrimSuffix(source, filepath.Ext(source)) + ".c"
	if config.Inplace || config.BuildTemp == "" {
		return filepath.Join(config.ProjectDir, generated)
	}
	return filepath.Join(config.BuildTemp, generated)
}

// dependencyExts are headers a build reads without listing them as sources.
var dependencyExts = []string{".pxd", ".pxi", ".h", ".hpp"}

func upToDate(config *BuildConfig, ext *Extension, output string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}

	for _, src := range ext.Sources {
		srcInfo, err := os.Stat(filepath.Join(config.ProjectDir, src))
		if err != nil || srcInfo.ModTime().After(outInfo.ModTime()) {
			return false
		}
	}

	for _, dep := range dependencyFiles(config, ext) {
		if info, err := os.Stat(dep); err == nil && info.ModTime().After(outInfo.ModTime()) {
			return false
		}
	}
	return true
}

// dependencyFiles lists the headers next to ext's sources and in the
// include directories. Cimported .pxd files live in either place.
func dependencyFiles(config *BuildConfig, ext *Extension) []string {
	dirs := make(map[string]struct{})
	for _, src := range ext.Sources {
		dirs[filepath.Join(config.ProjectDir, filepath.Dir(src))] = struct{}{}
	}
	for _, dir := range config.IncludeDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(config.ProjectDir, dir)
		}
		dirs[filepath.Clean(dir)] = struct{}{}
	}

	var deps []string
	for dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !MatchesExtension(entry.Name(), dependencyExts...) {
				continue
			}
			deps = append(deps, filepath.Join(dir, entry.Name()))
		}
	}
	return deps
}

// runCommand executes name with args in dir, capturing output into result.
func runCommand(ctx context.Context, config *BuildConfig, dir, label, name string, args []string, result *BuildResult) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", name, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", dir))
	}

	output, err := cmd.CombinedOutput()
	if trimmed := strings.TrimRight(string(output), "\n"); trimmed != "" {
		result.Output = append(result.Output, strings.Split(trimmed, "\n")...)
	}

	if err != nil {
		return BuildError(label, result.Output, err)
	}
	return nil
}

// resolveCompiler picks the compiler executable: an explicit setting, the
// environment variable, then the first candidate found in PATH.
func resolveCompiler(explicit, envVar string, candidates ...string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if fromEnv := os.Getenv(envVar); fromEnv != "" {
		return fromEnv, nil
	}
	for _, candidate := range candidates {
		if path, err := execLookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no compiler found (set %s or install one of %s)", envVar, strings.Join(candidates, ", "))
}

// compileArgs assembles the compiler command line for one shared object.
func compileArgs(config *BuildConfig, ext *Extension, sources []string, output string) []string {
	var args []string

	if runtime.GOOS == "darwin" {
		args = append(args, "-bundle", "-undefined", "dynamic_lookup")
	} else {
		args = append(args, "-shared")
	}
	args = append(args, "-fPIC")

	if config.Interpreter != nil && config.Interpreter.IncludeDir != "" {
		args = append(args, "-I"+config.Interpreter.IncludeDir)
	}
	for _, dir := range config.IncludeDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(config.ProjectDir, dir)
		}
		args = append(args, "-I"+dir)
	}

	args = append(args, ext.ExtraCompileArgs...)
	args = append(args, "-o", output)
	args = append(args, sources...)
	args = append(args, ext.ExtraLinkArgs...)

	for _, lib := range ext.Libraries {
		args = append(args, "-l"+lib)
	}

	return args
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
