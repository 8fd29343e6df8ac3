package cythonext

import "context"

// BuildResult contains the output and status of building one extension.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from cython and the compiler
//   - Artifacts list of compiled shared objects
//   - Skipped when the artifact was already newer than its sources
type BuildResult struct {
	Extension string   // Dotted module name
	Success   bool     // True if build completed successfully
	Skipped   bool     // True if the artifact was up to date
	Output    []string // Lines of output from the build process
	Artifacts []string // Paths to built shared objects
	Error     error    // Error if build failed, nil otherwise
}

// BuildConfig contains configuration for the build process.
//
// Source paths:
//   - ProjectDir: Root of the project; extension sources are relative to it
//   - BuildLib: Destination for compiled modules when not building in place
//   - BuildTemp: Scratch directory for generated C sources
//
// Toolchain:
//   - Interpreter: Python headers and extension suffix
//   - Compiler / CXXCompiler: C and C++ compilers ("" = $CC/$CXX or PATH)
//   - Cython: cython executable ("" = cython)
//
// Build behavior:
//   - Inplace: Write modules next to their sources
//   - Force: Rebuild even if artifacts are newer than sources
//   - Debug: Emit cython debug information
//   - Parallel: Number of extensions built concurrently (0 or 1 = sequential)
//   - StopOnFailure: Stop after the first failed extension
type BuildConfig struct {
	// Source paths
	ProjectDir string
	BuildLib   string
	BuildTemp  string

	// Toolchain
	Interpreter *Interpreter
	Compiler    string
	CXXCompiler string
	Cython      string
	IncludeDirs []string
	Env         map[string]string

	// Build options
	Inplace  bool
	Force    bool
	Debug    bool
	Verbose  bool
	Parallel int

	// Failure handling
	StopOnFailure bool
}

// CommonBuildSteps defines the translate, compile, find pattern shared by
// the builders.
//
//  1. Configure: Generate intermediate sources (cython → .c)
//  2. Build: Compile and link the shared object
//  3. Find: Verify and report the produced artifacts
type CommonBuildSteps struct {
	// ConfigureFunc prepares sources for compilation. It returns the files
	// handed to the compiler.
	ConfigureFunc func(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) ([]string, error)

	// BuildFunc compiles the prepared sources into output.
	BuildFunc func(ctx context.Context, config *BuildConfig, ext *Extension, sources []string, output string, result *BuildResult) error

	// FindFunc locates the compiled artifacts after the build completes.
	FindFunc func(config *BuildConfig, ext *Extension) ([]string, error)
}
