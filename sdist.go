package cythonext

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// SdistFiles lists the files that go into a source distribution, relative
// to the project root and sorted.
func SdistFiles(cfg *Configuration) ([]string, error) {
	project := cfg.Project
	var files []string

	if path := project.Path(); path != "" {
		if rel, err := filepath.Rel(cfg.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			files = append(files, rel)
		}
	}

	for _, pkg := range project.Packages {
		globs := append([]string{"*.pyx", "*.pxd"}, project.PackageData[pkg]...)
		pkgFiles, err := packageFiles(cfg.Root, pkg, globs)
		if err != nil {
			return nil, err
		}
		files = append(files, pkgFiles...)
	}

	for _, ext := range cfg.Extensions {
		for _, src := range ext.Sources {
			if _, err := os.Stat(filepath.Join(cfg.Root, src)); err == nil {
				files = append(files, src)
			}
		}
	}

	for _, group := range cfg.DataFiles {
		for _, file := range group.Files {
			files = append(files, filepath.FromSlash(file))
		}
	}

	for i, file := range files {
		files[i] = filepath.ToSlash(filepath.Clean(file))
	}
	files = uniqueStrings(files)
	sort.Strings(files)
	return files, nil
}

// WriteSdist writes <distDir>/<name>-<version>.tar.gz and returns its path.
func WriteSdist(cfg *Configuration, distDir string) (string, error) {
	files, err := SdistFiles(cfg)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s-%s", cfg.Project.Name, cfg.Version)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", err
	}
	archivePath := filepath.Join(distDir, base+".tar.gz")

	out, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}

	if err := writeSdistArchive(out, cfg, base, files); err != nil {
		out.Close()
		os.Remove(archivePath)
		return "", err
	}

	if err := out.Close(); err != nil {
		return "", err
	}
	return archivePath, nil
}

func writeSdistArchive(w io.Writer, cfg *Configuration, base string, files []string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	pkgInfo := []byte(PackageInfo(cfg))
	if err := tw.WriteHeader(&tar.Header{
		Name:    base + "/PKG-INFO",
		Mode:    0o644,
		Size:    int64(len(pkgInfo)),
		ModTime: time.Now(),
	}); err != nil {
		return err
	}
	if _, err := tw.Write(pkgInfo); err != nil {
		return err
	}

	for _, rel := range files {
		if err := addFileToTar(tw, filepath.Join(cfg.Root, filepath.FromSlash(rel)), base+"/"+rel); err != nil {
			return fmt.Errorf("failed to add %s to sdist: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFileToTar(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// PackageInfo renders the PKG-INFO metadata for the project.
func PackageInfo(cfg *Configuration) string {
	p := cfg.Project
	var b strings.Builder

	field := func(key, value string) {
		if value == "" {
			value = "UNKNOWN"
		}
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}

	field("Metadata-Version", "1.1")
	field("Name", p.Name)
	field("Version", cfg.Version)
	field("Summary", p.ShortDescription)
	field("Home-page", p.URL)
	field("Author", p.Author)
	field("Author-email", p.AuthorEmail)
	field("License", p.License)
	field("Description", strings.ReplaceAll(strings.TrimRight(p.Description, "\n"), "\n", "\n        "))
	if len(p.Keywords) > 0 {
		field("Keywords", strings.Join(p.Keywords, " "))
	}
	for _, platform := range p.Platforms {
		field("Platform", platform)
	}
	for _, classifier := range p.Classifiers {
		field("Classifier", classifier)
	}
	for _, provides := range p.Provides {
		field("Provides", provides)
	}

	return b.String()
}
