package cythonext

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// packageFiles returns the files belonging to one package, relative to the
// project root: its top-level .py modules plus any package_data globs.
// Subpackages are not recursed into; they must be declared separately.
func packageFiles(root, pkg string, globs []string) ([]string, error) {
	pkgDir := strings.ReplaceAll(pkg, ".", string(filepath.Separator))

	patterns := append([]string{"*.py"}, globs...)

	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pkgDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, pkgDir, err)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(root, match)
			if err == nil {
				files = append(files, rel)
			}
		}
	}

	files = uniqueStrings(files)
	sort.Strings(files)
	return files, nil
}

// copyPackages copies every declared package's files from root into dest,
// preserving their relative layout, and returns the copied paths relative
// to dest.
func copyPackages(root, dest string, project *Project) ([]string, error) {
	var copied []string

	for _, pkg := range project.Packages {
		files, err := packageFiles(root, pkg, project.PackageData[pkg])
		if err != nil {
			return nil, err
		}

		for _, rel := range files {
			if err := copyFile(filepath.Join(root, rel), filepath.Join(dest, rel)); err != nil {
				return nil, err
			}
			copied = append(copied, filepath.ToSlash(rel))
		}
	}

	return copied, nil
}

// copyTree copies every regular file below src into dest.
func copyTree(src, dest string) ([]string, error) {
	var copied []string

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dest, rel)
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied = append(copied, target)
		return nil
	})

	return copied, err
}

// installDataFiles copies each data-file group into prefix/<group dir>.
func installDataFiles(root, prefix string, groups []DataFileGroup) ([]string, error) {
	var installed []string

	for _, group := range groups {
		targetDir := filepath.Join(prefix, safeRelativePath(filepath.FromSlash(group.Dir)))

		for _, file := range group.Files {
			src := filepath.Join(root, filepath.FromSlash(file))
			target := filepath.Join(targetDir, filepath.Base(src))
			if err := copyFile(src, target); err != nil {
				return nil, err
			}
			installed = append(installed, target)
		}
	}

	return installed, nil
}

// sitePackagesDir returns the module install directory for a prefix.
func sitePackagesDir(prefix string, interp *Interpreter) string {
	version := "3"
	if interp != nil {
		parts := strings.SplitN(interp.Version, ".", 3)
		if len(parts) >= 2 {
			version = parts[0] + "." + parts[1]
		}
	}
	return filepath.Join(prefix, "lib", "python"+version, "site-packages")
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return filepath.Base(path)
	}
	return clean
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
