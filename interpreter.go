package cythonext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/magefile/mage/sh"
)

// ErrUnsupportedInterpreter is returned when the Python interpreter is older
// than the project's minimum version.
var ErrUnsupportedInterpreter = errors.New("unsupported Python interpreter")

// DefaultMinPython is the oldest interpreter the presets are tested with.
const DefaultMinPython = "2.7"

const probeScript = `import sys, sysconfig
print('%d.%d.%d' % tuple(sys.version_info[:3]))
print(sysconfig.get_paths()['include'])
print(sysconfig.get_config_var('EXT_SUFFIX') or sysconfig.get_config_var('SO') or '.so')`

// probeOutput runs a command and returns its trimmed stdout.
// Replaced in tests.
var probeOutput = sh.Output

// Interpreter describes the Python interpreter extensions are built for.
type Interpreter struct {
	Path       string
	Version    string
	IncludeDir string
	ExtSuffix  string
}

// ProbeInterpreter asks the interpreter at path for its version, header
// directory and extension-module suffix.
func ProbeInterpreter(path string) (*Interpreter, error) {
	if path == "" {
		path = "python3"
	}

	out, err := probeOutput(path, "-c", probeScript)
	if err != nil {
		return nil, fmt.Errorf("failed to probe interpreter %s: %w", path, err)
	}

	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("unexpected output from interpreter %s: %q", path, out)
	}

	return &Interpreter{
		Path:       path,
		Version:    strings.TrimSpace(lines[0]),
		IncludeDir: strings.TrimSpace(lines[1]),
		ExtSuffix:  strings.TrimSpace(lines[2]),
	}, nil
}

// CheckVersion returns ErrUnsupportedInterpreter if the interpreter is
// older than minimum.
func (i *Interpreter) CheckVersion(minimum string) error {
	if minimum == "" {
		minimum = DefaultMinPython
	}
	if CompareVersions(i.Version, minimum) < 0 {
		return fmt.Errorf("%w: Python %s found, %s or later required", ErrUnsupportedInterpreter, i.Version, minimum)
	}
	return nil
}

// LanguageLevel returns the cython language level flag for this
// interpreter.
func (i *Interpreter) LanguageLevel() string {
	major, _, _ := strings.Cut(i.Version, ".")
	if major == "2" {
		return "-2"
	}
	return "-3"
}

// CompareVersions compares dotted numeric versions component by component.
// Missing components count as zero and non-numeric suffixes are ignored, so
// "3.10.0rc1" compares equal to "3.10".
func CompareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for len(pa) < len(pb) {
		pa = append(pa, 0)
	}
	for len(pb) < len(pa) {
		pb = append(pb, 0)
	}

	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

func versionParts(version string) []int {
	var parts []int
	for _, field := range strings.Split(version, ".") {
		end := 0
		for end < len(field) && field[end] >= '0' && field[end] <= '9' {
			end++
		}
		n, err := strconv.Atoi(field[:end])
		if err != nil {
			n = 0
		}
		parts = append(parts, n)
	}
	// trailing zero components do not change ordering
	for len(parts) > 1 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	return parts
}
