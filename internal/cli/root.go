// Package cli provides the command-line interface for cythonext.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cythonext "github.com/contriboss/cython-extension-go"
	"github.com/contriboss/cython-extension-go/internal/logger"
)

// Config keys, also readable from CYTHONEXT_<KEY> environment variables.
const (
	keyConfig    = "config"
	keyRoot      = "root"
	keyMode      = "mode"
	keyPython    = "python"
	keyVerbose   = "verbose"
	keyNoColor   = "no-color"
	keyParallel  = "parallel"
	keyForce     = "force"
	keyKeepGoing = "keep-going"
	keyCython    = "cython"
	keyCompiler  = "compiler"
)

// app carries the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	version string
	stdout  io.Writer
	stderr  io.Writer
	log     *logrus.Logger
}

// Execute runs the CLI until ctx is cancelled.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Output goes to stdout and
// diagnostics to stderr.
func NewRootCommand(version string, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:       viper.New(),
		version: version,
		stdout:  stdout,
		stderr:  stderr,
	}

	root := &cobra.Command{
		Use:   "cythonext",
		Short: "Build, install and package Cython extension modules",
		Long: `cythonext compiles the Cython and C extension modules declared in a
project manifest (cythonext.yaml or cythonext.hcl), stages the package,
installs it under a prefix and writes source distributions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.initLogger()
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String(keyConfig, "", "manifest file (default: cythonext.yaml, cythonext.yml or cythonext.hcl in --root)")
	flags.String(keyRoot, ".", "project root directory")
	flags.String(keyMode, "", "build mode, overrides the manifest ("+cythonext.ValidModes()+")")
	flags.String(keyPython, "python3", "Python interpreter to build for")
	flags.BoolP(keyVerbose, "v", false, "show commands and compiler output")
	flags.Bool(keyNoColor, false, "disable colored output")
	flags.IntP(keyParallel, "j", 1, "number of extensions to build concurrently")
	flags.BoolP(keyForce, "f", false, "rebuild extensions even if up to date")
	flags.Bool(keyKeepGoing, false, "keep building after an extension fails")
	flags.String(keyCython, "", "cython executable (default: cython)")
	flags.String(keyCompiler, "", "C compiler (default: $CC or cc)")

	for _, key := range []string{keyConfig, keyRoot, keyMode, keyPython, keyVerbose, keyNoColor, keyParallel, keyForce, keyKeepGoing, keyCython, keyCompiler} {
		if err := a.v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(fmt.Sprintf("binding flag %q: %v", key, err))
		}
	}
	a.v.SetEnvPrefix("CYTHONEXT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newBuildExtCmd(a),
		newBuildCmd(a),
		newInstallCmd(a),
		newSdistCmd(a),
		newCleanCmd(a),
		newShowCmd(a),
		newWatchCmd(a),
		newVersionCmd(a),
	)

	return root
}

func (a *app) initLogger() {
	level := "info"
	if a.v.GetBool(keyVerbose) {
		level = "debug"
	}
	a.log = logger.New(a.stderr, level, a.v.GetBool(keyNoColor))
}

// configure loads the manifest and assembles the build configuration.
func (a *app) configure(ctx context.Context) (*cythonext.Configuration, error) {
	root, err := filepath.Abs(a.v.GetString(keyRoot))
	if err != nil {
		return nil, err
	}

	manifest := a.v.GetString(keyConfig)
	if manifest == "" {
		manifest, err = cythonext.FindManifest(root)
		if err != nil {
			return nil, err
		}
	} else if !filepath.IsAbs(manifest) {
		manifest = filepath.Join(root, manifest)
	}

	project, err := cythonext.LoadProject(manifest)
	if err != nil {
		return nil, err
	}

	return cythonext.Configure(ctx, root, project, cythonext.ConfigureOptions{
		BuildMode: a.v.GetString(keyMode),
		Logger:    a.log,
	})
}

func (a *app) runner(cfg *cythonext.Configuration) *cythonext.Runner {
	return cythonext.NewRunner(cfg, cythonext.RunnerOptions{
		Python:    a.v.GetString(keyPython),
		Cython:    a.v.GetString(keyCython),
		Compiler:  a.v.GetString(keyCompiler),
		Parallel:  a.v.GetInt(keyParallel),
		Force:     a.v.GetBool(keyForce),
		Verbose:   a.v.GetBool(keyVerbose),
		KeepGoing: a.v.GetBool(keyKeepGoing),
		Logger:    a.log,
	})
}

func (a *app) printSuccess(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", color.GreenString("[cythonext]"), fmt.Sprintf(format, args...))
}

func (a *app) printInfo(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", color.CyanString("[cythonext]"), fmt.Sprintf(format, args...))
}
