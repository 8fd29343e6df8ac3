package cythonext

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DataFileGroup is a directory and the data files to install under it.
// Paths are relative to the project root.
type DataFileGroup struct {
	Dir   string   `yaml:"dir"`
	Files []string `yaml:"files"`
}

// DefaultDataExts are the literal file extensions treated as data files.
var DefaultDataExts = []string{".py", ".pyx", ".pxd", ".c", ".cpp", ".h", ".sh", ".lyx", ".tex", ".txt", ".pdf"}

// DefaultStandardDocs are the doc basenames detected at the project root.
var DefaultStandardDocs = []string{"README", "LICENSE", "TODO", "CHANGELOG", "AUTHORS"}

// DefaultStandardDocExts are tried in order for every standard doc.
var DefaultStandardDocExts = []string{".md", ".rst", ".txt", ""}

// CollectDataFiles walks each data directory below root and returns one
// group per directory visited, including directories with no matches.
// Extensions are matched literally against filepath.Ext.
func CollectDataFiles(root string, dirs, exts []string) ([]DataFileGroup, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[ext] = struct{}{}
	}

	var groups []DataFileGroup
	for _, dir := range dirs {
		base := filepath.Join(root, dir)
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return err
			}

			group := DataFileGroup{Dir: filepath.ToSlash(rel), Files: []string{}}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if _, ok := allowed[filepath.Ext(entry.Name())]; ok {
					group.Files = append(group.Files, filepath.ToSlash(filepath.Join(rel, entry.Name())))
				}
			}
			groups = append(groups, group)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// DetectDocs returns the standard documentation files present at root.
func DetectDocs(root string, docs, exts []string) []string {
	detected := []string{}
	for _, doc := range docs {
		for _, ext := range exts {
			name := doc + ext
			if info, err := os.Stat(filepath.Join(root, name)); err == nil && info.Mode().IsRegular() {
				detected = append(detected, name)
			}
		}
	}
	return detected
}
