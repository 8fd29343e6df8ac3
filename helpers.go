package cythonext

import (
	"fmt"
	"strings"
)

// MatchesExtension checks if a filename has any of the given extensions.
//
// The check is case-insensitive, so "module.PYX" matches ".pyx".
//
// # Example
//
//	if MatchesExtension(filename, ".c", ".cpp") {
//	    // plain C/C++ source
//	}
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// # Format
//
// With error and output:
//
//	Compile build failed: exit status 1
//
//	Build output:
//	mylibrary/compute.c:12:5: error: unknown type name 'foo'
//
// With error but no output:
//
//	Cython build failed: exec: "cython": executable file not found in $PATH
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}
