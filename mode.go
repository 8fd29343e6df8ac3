package cythonext

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBuildMode is returned when a build mode name is not recognized.
var ErrUnknownBuildMode = errors.New("unknown build configuration")

// BuildMode selects the compiler and linker preset used for every extension.
type BuildMode string

const (
	// ModeOptimized compiles with -O2 and, for numeric modules, SIMD flags.
	ModeOptimized BuildMode = "optimized"
	// ModeDebug compiles with -O0 -g and emits cython debug information.
	ModeDebug BuildMode = "debug"
)

// ParseBuildMode converts a mode name into a BuildMode.
//
// Names are matched exactly. Anything other than "optimized" or "debug"
// returns an error wrapping ErrUnknownBuildMode.
func ParseBuildMode(name string) (BuildMode, error) {
	switch BuildMode(name) {
	case ModeOptimized, ModeDebug:
		return BuildMode(name), nil
	default:
		return "", fmt.Errorf("%w '%s'; valid: '%s', '%s'", ErrUnknownBuildMode, name, ModeOptimized, ModeDebug)
	}
}

// Debug reports whether the mode produces debug builds.
func (m BuildMode) Debug() bool {
	return m == ModeDebug
}

func (m BuildMode) String() string {
	return string(m)
}

// FlagPreset is a fixed pair of compiler and linker argument lists.
type FlagPreset struct {
	Name        string
	CompileArgs []string
	LinkArgs    []string
}

// The presets are geared toward x86_64. -O3 is avoided on purpose.
var (
	numericOptimized = FlagPreset{
		Name:        "numeric-optimized",
		CompileArgs: []string{"-march=native", "-O2", "-msse", "-msse2", "-mfma", "-mfpmath=sse"},
	}
	numericDebug = FlagPreset{
		Name:        "numeric-debug",
		CompileArgs: []string{"-march=native", "-O0", "-g"},
	}
	plainOptimized = FlagPreset{
		Name:        "plain-optimized",
		CompileArgs: []string{"-O2"},
	}
	plainDebug = FlagPreset{
		Name:        "plain-debug",
		CompileArgs: []string{"-O0", "-g"},
	}

	openMPCompileArgs = []string{"-fopenmp"}
	openMPLinkArgs    = []string{"-fopenmp"}
)

// PresetFor returns a copy of the preset for the given mode and numeric
// classification. The returned slices may be modified freely.
func PresetFor(mode BuildMode, numeric bool) (FlagPreset, error) {
	var preset FlagPreset

	switch {
	case mode == ModeOptimized && numeric:
		preset = numericOptimized
	case mode == ModeOptimized:
		preset = plainOptimized
	case mode == ModeDebug && numeric:
		preset = numericDebug
	case mode == ModeDebug:
		preset = plainDebug
	default:
		_, err := ParseBuildMode(string(mode))
		return FlagPreset{}, err
	}

	return FlagPreset{
		Name:        preset.Name,
		CompileArgs: cloneArgs(preset.CompileArgs),
		LinkArgs:    cloneArgs(preset.LinkArgs),
	}, nil
}

// OpenMPArgs returns copies of the OpenMP compile and link arguments.
func OpenMPArgs() (compile, link []string) {
	return cloneArgs(openMPCompileArgs), cloneArgs(openMPLinkArgs)
}

// ValidModes lists the accepted build mode names.
func ValidModes() string {
	return strings.Join([]string{string(ModeOptimized), string(ModeDebug)}, ", ")
}

func cloneArgs(args []string) []string {
	return append([]string{}, args...)
}
