// Package cythonext declares, compiles and packages native extension modules
// for Python projects.
//
// A project is described by a manifest (YAML or HCL) listing its packages,
// data files and extension modules. Each extension is classified as numeric
// or plain and may request OpenMP; the package maps that classification and
// the selected build mode onto a fixed set of compiler and linker flags.
//
// # Supported Sources
//
// The package includes builders for:
//   - .pyx - Cython modules, translated with cython and then compiled
//   - .c, .cc, .cpp, .cxx - plain C/C++ extension modules
//
// # Basic Usage
//
// Load a manifest, assemble the configuration and build:
//
//	project, err := cythonext.LoadProject("cythonext.yaml")
//	if err != nil {
//	    return err
//	}
//
//	cfg, err := cythonext.Configure(ctx, ".", project, cythonext.ConfigureOptions{})
//	if err != nil {
//	    return err // unknown build mode, bad manifest
//	}
//
//	runner := cythonext.NewRunner(cfg, cythonext.RunnerOptions{Python: "python3"})
//	results, err := runner.BuildExt(ctx, true)
//
// # Architecture
//
//	Configure
//	├── ParseBuildMode (optimized, debug)
//	├── Declarer        (presets → Extension)
//	├── ExtractVersion  (<libname>/__init__.py)
//	└── CollectDataFiles / DetectDocs
//
//	Runner
//	├── BuildExt → BuilderFactory
//	│   ├── CythonBuilder (.pyx)
//	│   └── CBuilder (.c, .cpp)
//	├── Build    → package sources into build/lib
//	├── Install  → build/lib and data files into a prefix
//	└── Sdist    → <name>-<version>.tar.gz
//
// # Platform Support
//
// Linux and macOS with a GCC-compatible compiler. The numeric presets
// target x86_64.
package cythonext
