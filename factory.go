package cythonext

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// BuilderFactory manages the registration and selection of extension builders.
//
// The factory maintains a registry of Builder implementations and provides
// methods to:
//   - Register new builders
//   - Find the appropriate builder for an extension
//   - Build a list of extensions, sequentially or in parallel
//
// # Builder Selection
//
// When building an extension, the factory:
//  1. Takes the extension's primary (first) source file
//  2. Calls CanBuild() on each registered builder in order
//  3. Uses the first builder that returns true
//  4. Returns an error if no builder can handle the file
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before concurrent use.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with all standard builders registered.
//
// The standard builders are registered in this order:
//  1. CythonBuilder - .pyx sources
//  2. CBuilder - .c, .cc, .cpp, .cxx sources
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&CythonBuilder{})
	factory.Register(&CBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
// Not thread-safe. Register all builders before concurrent use.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the appropriate builder for the given source file.
//
// Only the base filename is used for matching.
func (f *BuilderFactory) BuilderFor(source string) (Builder, error) {
	filename := filepath.Base(source)

	for _, builder := range f.builders {
		if builder.CanBuild(filename) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for source file: %s", filename)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// BuildAllExtensions builds every extension and returns one result per
// extension processed, in declaration order.
//
// With config.Parallel <= 1 extensions are built one at a time:
//   - Processing stops after the first failure if config.StopOnFailure is set
//   - Context cancellation stops processing and records a failed result
//
// With config.Parallel > 1 up to that many builds run concurrently. If
// StopOnFailure is set the first failure cancels the builds still pending
// or running, and that failure is the error returned. Otherwise the first
// error in declaration order is returned alongside the results.
func (f *BuilderFactory) BuildAllExtensions(ctx context.Context, config *BuildConfig, extensions []*Extension) ([]*BuildResult, error) {
	if len(extensions) == 0 {
		return nil, nil
	}

	if config.Parallel > 1 {
		return f.buildParallel(ctx, config, extensions)
	}

	var results []*BuildResult
	var firstError error

	for _, ext := range extensions {
		// Check for context cancellation
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Extension: ext.Name,
				Success:   false,
				Error:     ctxErr,
			})
			break
		}

		result, err := f.buildOne(ctx, config, ext)
		if err != nil && firstError == nil {
			firstError = err
		}

		results = append(results, result)

		// Stop on first failure if configured
		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}

func (f *BuilderFactory) buildParallel(ctx context.Context, config *BuildConfig, extensions []*Extension) ([]*BuildResult, error) {
	results := make([]*BuildResult, len(extensions))

	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if config.StopOnFailure {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(config.Parallel)

	for i, ext := range extensions {
		g.Go(func() error {
			if ctxErr := gctx.Err(); ctxErr != nil {
				results[i] = &BuildResult{Extension: ext.Name, Error: ctxErr}
				return ctxErr
			}

			result, err := f.buildOne(gctx, config, ext)
			results[i] = result
			return err
		})
	}
	waitErr := g.Wait()

	// The failure that cancelled the group outranks the builds it killed.
	if config.StopOnFailure && waitErr != nil {
		return results, waitErr
	}

	for _, result := range results {
		if result.Error != nil {
			return results, result.Error
		}
	}
	return results, nil
}

// buildOne always returns a non-nil result.
func (f *BuilderFactory) buildOne(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	builder, err := f.BuilderFor(ext.PrimarySource())
	if err != nil {
		return &BuildResult{Extension: ext.Name, Success: false, Error: err}, err
	}

	result, err := builder.Build(ctx, config, ext)
	if result == nil {
		result = &BuildResult{Extension: ext.Name, Success: err == nil, Error: err}
	}
	if err != nil && result.Error == nil {
		result.Error = err
	}
	return result, err
}

// CleanAll removes the artifacts of every extension that has a builder.
func (f *BuilderFactory) CleanAll(ctx context.Context, config *BuildConfig, extensions []*Extension) error {
	for _, ext := range extensions {
		builder, err := f.BuilderFor(ext.PrimarySource())
		if err != nil {
			continue
		}
		if err := builder.Clean(ctx, config, ext); err != nil {
			return fmt.Errorf("%s clean failed for %s: %w", builder.Name(), ext.Name, err)
		}
	}
	return nil
}
