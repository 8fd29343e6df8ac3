package cythonext

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ConfigureOptions adjusts configuration assembly.
type ConfigureOptions struct {
	// BuildMode overrides the manifest's build mode when non-empty.
	BuildMode string

	// Logger receives progress and warnings. Nil discards them.
	Logger logrus.FieldLogger
}

// Configuration is the fully assembled input to a build step.
type Configuration struct {
	Root       string          `yaml:"root"`
	Project    *Project        `yaml:"-"`
	Mode       BuildMode       `yaml:"build_mode"`
	Debug      bool            `yaml:"debug"`
	Version    string          `yaml:"version"`
	Extensions []*Extension    `yaml:"extensions"`
	DataFiles  []DataFileGroup `yaml:"data_files"`
}

// Configure assembles the build configuration for the project rooted at
// root.
//
// The build mode is resolved first; an unknown mode aborts before any
// extension is declared. Missing version information is not fatal.
func Configure(ctx context.Context, root string, project *Project, opts ConfigureOptions) (*Configuration, error) {
	log := orDiscard(opts.Logger)

	modeName := project.BuildMode
	if opts.BuildMode != "" {
		modeName = opts.BuildMode
	}

	mode, err := ParseBuildMode(modeName)
	if err != nil {
		return nil, err
	}
	log.Infof("build configuration selected: %s", mode)

	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	declarer, err := NewDeclarer(mode)
	if err != nil {
		return nil, err
	}
	extensions := declarer.DeclareAll(project.Extensions)
	for _, ext := range extensions {
		log.WithFields(logrus.Fields{
			"extension": ext.Name,
			"preset":    ext.Preset,
			"openmp":    ext.OpenMP,
		}).Debug("declared extension")
	}

	version := ExtractVersion(root, project.LibName, log)

	dataFiles, err := CollectDataFiles(root, project.DataDirs, project.DataExts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect data files: %w", err)
	}
	dataFiles = append(dataFiles, DataFileGroup{
		Dir:   ".",
		Files: DetectDocs(root, project.StandardDocs, project.StandardDocExts),
	})

	return &Configuration{
		Root:       root,
		Project:    project,
		Mode:       mode,
		Debug:      mode.Debug(),
		Version:    version,
		Extensions: extensions,
		DataFiles:  dataFiles,
	}, nil
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
