package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cythonext "github.com/contriboss/cython-extension-go"
)

func newBuildExtCmd(a *app) *cobra.Command {
	var inplace bool

	cmd := &cobra.Command{
		Use:     "build_ext",
		Aliases: []string{"build-ext"},
		Short:   "Compile the extension modules",
		Long: `Translate and compile every declared extension module into build/lib,
or next to its sources with --inplace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}

			results, err := a.runner(cfg).BuildExt(cmd.Context(), inplace)
			if err != nil {
				return err
			}
			a.printSuccess("built %d extension(s)", len(results))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&inplace, "inplace", "i", false, "place compiled modules next to their sources")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Compile extensions and stage the package into build/lib",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}

			runner := a.runner(cfg)
			if err := runner.Build(cmd.Context()); err != nil {
				return err
			}
			a.printSuccess("staged %s %s in %s", cfg.Project.Name, cfg.Version, runner.BuildLib())
			return nil
		},
	}
}

func newInstallCmd(a *app) *cobra.Command {
	var opts cythonext.InstallOptions

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Build and install the package under a prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}

			installed, err := a.runner(cfg).Install(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.printSuccess("installed %d file(s)", len(installed))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "installation prefix")
	cmd.Flags().StringVar(&opts.Target, "target", "", "install modules into this directory instead of <prefix>/lib/pythonX.Y/site-packages")
	return cmd
}

func newSdistCmd(a *app) *cobra.Command {
	var distDir string

	cmd := &cobra.Command{
		Use:   "sdist",
		Short: "Create a source distribution (tar.gz)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}

			path, err := a.runner(cfg).Sdist(cmd.Context(), distDir)
			if err != nil {
				return err
			}
			a.printSuccess("wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&distDir, "dist-dir", "d", "", "directory for the archive (default: dist)")
	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove build artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}
			return a.runner(cfg).Clean(cmd.Context())
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved extension declarations as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configure(cmd.Context())
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cythonext version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "cythonext %s\n", a.version)
		},
	}
}
