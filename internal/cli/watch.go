package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	cythonext "github.com/contriboss/cython-extension-go"
)

// watchedExts are the source types that trigger a rebuild.
var watchedExts = []string{".pyx", ".pxd", ".pxi", ".c", ".cc", ".cpp", ".cxx", ".h", ".hpp"}

func newWatchCmd(a *app) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild extensions in place whenever their sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}
			return a.watch(cmd.Context(), cfg, settle)
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 200*time.Millisecond, "wait this long after the last change before rebuilding")
	return cmd
}

// watchDirs returns the directories holding extension sources and include
// paths.
func watchDirs(cfg *cythonext.Configuration) []string {
	seen := make(map[string]struct{})
	add := func(dir string) {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Root, dir)
		}
		seen[filepath.Clean(dir)] = struct{}{}
	}

	for _, ext := range cfg.Extensions {
		for _, src := range ext.Sources {
			add(filepath.Dir(src))
		}
	}
	for _, dir := range cfg.Project.IncludeDirs {
		add(dir)
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// triggersRebuild reports whether a change to name should start a build.
// C files generated from declared .pyx sources never trigger one.
func triggersRebuild(cfg *cythonext.Configuration, name string) bool {
	if !cythonext.MatchesExtension(name, watchedExts...) {
		return false
	}

	generated := &cythonext.BuildConfig{ProjectDir: cfg.Root, Inplace: true}
	name = filepath.Clean(name)
	for _, ext := range cfg.Extensions {
		for _, src := range ext.Sources {
			if cythonext.MatchesExtension(src, cythonext.SourceExt) && cythonext.TempSourcePath(generated, src) == name {
				return false
			}
		}
	}
	return true
}

func (a *app) watch(ctx context.Context, cfg *cythonext.Configuration, settle time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(cfg) {
		if err := watcher.Add(dir); err != nil {
			a.log.WithError(err).Warnf("cannot watch %s", dir)
			continue
		}
		a.log.Debugf("watching %s", dir)
	}

	runner := a.runner(cfg)
	rebuild := func() {
		if _, err := runner.BuildExt(ctx, true); err != nil {
			a.log.WithError(err).Error("rebuild failed")
			return
		}
		a.printSuccess("extensions up to date")
	}

	rebuild()
	a.printInfo("watching for changes, press Ctrl+C to stop")

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !triggersRebuild(cfg, event.Name) {
				continue
			}
			a.log.Debugf("change detected: %s", event.Name)
			timer.Reset(settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.WithError(err).Warn("watcher error")

		case <-timer.C:
			rebuild()
		}
	}
}
