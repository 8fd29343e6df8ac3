package cythonext

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// PlaceholderVersion is used when no version marker can be found.
const PlaceholderVersion = "0.0.unknown"

// ExtractVersion reads __version__ from <root>/<libname>/__init__.py without
// executing it.
//
// A missing file or missing marker is not fatal: a warning is logged and
// PlaceholderVersion is returned.
func ExtractVersion(root, libname string, log logrus.FieldLogger) string {
	log = orDiscard(log)
	initPath := filepath.Join(root, libname, "__init__.py")

	f, err := os.Open(initPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warnf("Could not find file '%s', using placeholder version information '%s'", initPath, PlaceholderVersion)
		} else {
			log.WithError(err).Warnf("Could not read '%s', using placeholder version information '%s'", initPath, PlaceholderVersion)
		}
		return PlaceholderVersion
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "__version__") {
			continue
		}
		if version, ok := parseVersionLine(line); ok {
			return version
		}
		break
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Warnf("Could not read '%s', using placeholder version information '%s'", initPath, PlaceholderVersion)
		return PlaceholderVersion
	}

	log.Warnf("Version information not found in '%s', using placeholder '%s'", initPath, PlaceholderVersion)
	return PlaceholderVersion
}

// parseVersionLine extracts the string literal from `__version__ = "1.2.3"`.
func parseVersionLine(line string) (string, bool) {
	_, value, found := strings.Cut(line, "=")
	if !found {
		return "", false
	}

	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "#"); idx >= 0 && !strings.HasPrefix(value, "#") {
		// trailing comment; only safe to strip once the literal is closed
		if lit, ok := unquote(strings.TrimSpace(value[:idx])); ok {
			return lit, true
		}
	}

	return unquote(value)
}

func unquote(value string) (string, bool) {
	// string prefixes such as u"" or r""
	value = strings.TrimLeft(value, "uUrR")

	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(value) >= 2*len(q) && strings.HasPrefix(value, q) && strings.HasSuffix(value, q) {
			return value[len(q) : len(value)-len(q)], true
		}
	}
	return "", false
}
