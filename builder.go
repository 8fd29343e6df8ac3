package cythonext

import "context"

// Builder defines the interface that all extension builders must implement.
//
// Each builder handles one family of sources (Cython, plain C/C++) and must
// implement these four methods to integrate with the BuilderFactory.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this with the extension's primary source
//  2. Build() - Factory calls this to compile the extension
//  3. Clean() - Removes generated sources and artifacts
//
// # Thread Safety
//
// Builder implementations should be stateless and thread-safe.
// The same builder instance may be used to build multiple extensions concurrently.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	// Examples: "Cython", "C"
	Name() string

	// CanBuild checks if this builder can handle the given source file.
	CanBuild(source string) bool

	// Build compiles the extension and returns the result.
	//
	// Source paths in ext are relative to config.ProjectDir.
	//
	// Returns:
	//   - BuildResult with Success=true and Artifacts list on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error)

	// Clean removes generated sources and built artifacts.
	//
	// Missing files are not an error.
	Clean(ctx context.Context, config *BuildConfig, ext *Extension) error
}
