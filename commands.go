package cythonext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// RunnerOptions configures the build commands.
type RunnerOptions struct {
	// Python is the interpreter extensions are built for ("" = python3).
	Python string

	// Interpreter skips probing when set.
	Interpreter *Interpreter

	// BuildDir holds build/lib and build/temp ("" = <root>/build).
	BuildDir string

	Compiler    string
	CXXCompiler string
	Cython      string
	Env         map[string]string

	Parallel int
	Force    bool
	Verbose  bool

	// KeepGoing builds the remaining extensions after a failure.
	KeepGoing bool

	// SkipToolCheck disables the PATH check for cython and the compiler.
	SkipToolCheck bool

	Logger logrus.FieldLogger
}

// InstallOptions selects where Install places files.
type InstallOptions struct {
	// Prefix receives data files and, unless Target is set, lib/pythonX.Y/site-packages.
	Prefix string

	// Target overrides the module install directory.
	Target string
}

// Runner implements build_ext, build, install, sdist and clean for one
// assembled configuration.
type Runner struct {
	cfg     *Configuration
	opts    RunnerOptions
	factory *BuilderFactory
	log     logrus.FieldLogger
}

// NewRunner creates a Runner with the standard builders.
func NewRunner(cfg *Configuration, opts RunnerOptions) *Runner {
	if opts.BuildDir == "" {
		opts.BuildDir = filepath.Join(cfg.Root, "build")
	}
	return &Runner{
		cfg:     cfg,
		opts:    opts,
		factory: NewBuilderFactory(),
		log:     orDiscard(opts.Logger),
	}
}

// Factory returns the builder factory so callers can register builders.
func (r *Runner) Factory() *BuilderFactory {
	return r.factory
}

// BuildLib is where modules are staged by build and build_ext.
func (r *Runner) BuildLib() string {
	return filepath.Join(r.opts.BuildDir, "lib")
}

// BuildTemp is where cython writes generated C sources.
func (r *Runner) BuildTemp() string {
	return filepath.Join(r.opts.BuildDir, "temp")
}

// interpreter probes the interpreter once and enforces the minimum version.
func (r *Runner) interpreter() (*Interpreter, error) {
	if r.opts.Interpreter == nil {
		interp, err := ProbeInterpreter(r.opts.Python)
		if err != nil {
			return nil, err
		}
		r.opts.Interpreter = interp
		r.log.WithFields(logrus.Fields{
			"python":  interp.Path,
			"version": interp.Version,
		}).Debug("probed interpreter")
	}

	if err := r.opts.Interpreter.CheckVersion(r.cfg.Project.MinPython); err != nil {
		return nil, err
	}
	return r.opts.Interpreter, nil
}

func (r *Runner) buildConfig(inplace bool) (*BuildConfig, error) {
	interp, err := r.interpreter()
	if err != nil {
		return nil, err
	}

	return &BuildConfig{
		ProjectDir:    r.cfg.Root,
		BuildLib:      r.BuildLib(),
		BuildTemp:     r.BuildTemp(),
		Interpreter:   interp,
		Compiler:      r.opts.Compiler,
		CXXCompiler:   r.opts.CXXCompiler,
		Cython:        r.opts.Cython,
		IncludeDirs:   r.cfg.Project.IncludeDirs,
		Env:           r.opts.Env,
		Inplace:       inplace,
		Force:         r.opts.Force,
		Debug:         r.cfg.Debug,
		Verbose:       r.opts.Verbose,
		Parallel:      r.opts.Parallel,
		StopOnFailure: !r.opts.KeepGoing,
	}, nil
}

// BuildExt compiles every declared extension, in place or into BuildLib.
func (r *Runner) BuildExt(ctx context.Context, inplace bool) ([]*BuildResult, error) {
	config, err := r.buildConfig(inplace)
	if err != nil {
		return nil, err
	}

	if !r.opts.SkipToolCheck {
		if err := r.factory.CheckBuilderTools(r.cfg.Extensions); err != nil {
			return nil, err
		}
	}

	results, err := r.factory.BuildAllExtensions(ctx, config, r.cfg.Extensions)
	for _, result := range results {
		entry := r.log.WithField("extension", result.Extension)
		for _, line := range result.Output {
			entry.Debug(line)
		}
		switch {
		case result.Skipped:
			entry.Infof("skipping '%s' extension (up-to-date)", result.Extension)
		case result.Success:
			entry.Infof("built %v", result.Artifacts)
		default:
			entry.WithError(result.Error).Error("build failed")
		}
	}
	return results, err
}

// Build runs BuildExt and stages package sources into BuildLib.
func (r *Runner) Build(ctx context.Context) error {
	if _, err := r.BuildExt(ctx, false); err != nil {
		return err
	}

	copied, err := copyPackages(r.cfg.Root, r.BuildLib(), r.cfg.Project)
	if err != nil {
		return fmt.Errorf("failed to stage packages: %w", err)
	}
	r.log.Infof("copied %d package files to %s", len(copied), r.BuildLib())
	return nil
}

// Install runs Build and copies the staged modules and data files into
// place. It returns the installed paths.
func (r *Runner) Install(ctx context.Context, opts InstallOptions) ([]string, error) {
	if opts.Prefix == "" && opts.Target == "" {
		return nil, fmt.Errorf("install requires a prefix or target directory")
	}

	if err := r.Build(ctx); err != nil {
		return nil, err
	}

	target := opts.Target
	if target == "" {
		target = sitePackagesDir(opts.Prefix, r.opts.Interpreter)
	}

	installed, err := copyTree(r.BuildLib(), target)
	if err != nil {
		return nil, fmt.Errorf("failed to install modules: %w", err)
	}

	if opts.Prefix != "" {
		data, err := installDataFiles(r.cfg.Root, opts.Prefix, r.cfg.DataFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to install data files: %w", err)
		}
		installed = append(installed, data...)
	}

	r.log.Infof("installed %d files to %s", len(installed), target)
	return installed, nil
}

// Sdist writes a source distribution into distDir ("" = <root>/dist).
func (r *Runner) Sdist(_ context.Context, distDir string) (string, error) {
	if distDir == "" {
		distDir = filepath.Join(r.cfg.Root, "dist")
	}

	path, err := WriteSdist(r.cfg, distDir)
	if err != nil {
		return "", err
	}
	r.log.Infof("wrote %s", path)
	return path, nil
}

// Clean removes in-place artifacts, generated C sources and the build
// directory.
func (r *Runner) Clean(ctx context.Context) error {
	config := &BuildConfig{
		ProjectDir:  r.cfg.Root,
		BuildLib:    r.BuildLib(),
		BuildTemp:   r.BuildTemp(),
		Interpreter: r.opts.Interpreter,
		Inplace:     true,
	}
	if config.Interpreter == nil {
		if interp, err := ProbeInterpreter(r.opts.Python); err == nil {
			config.Interpreter = interp
		} else {
			r.log.WithError(err).Warn("interpreter unavailable; only default .so artifacts are cleaned")
		}
	}

	if err := r.factory.CleanAll(ctx, config, r.cfg.Extensions); err != nil {
		return err
	}

	if err := os.RemoveAll(r.opts.BuildDir); err != nil {
		return err
	}
	r.log.Infof("removed %s", r.opts.BuildDir)
	return nil
}
