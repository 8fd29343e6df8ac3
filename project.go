package cythonext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// DefaultManifestNames are searched, in order, when no manifest is given.
var DefaultManifestNames = []string{"cythonext.yaml", "cythonext.yml", "cythonext.hcl"}

// Project is the manifest of one Python package with native extensions.
type Project struct {
	Name             string `yaml:"name" hcl:"name,attr"`
	LibName          string `yaml:"libname,omitempty" hcl:"libname,optional"`
	BuildMode        string `yaml:"build_mode,omitempty" hcl:"build_mode,optional"`
	ShortDescription string `yaml:"short_description,omitempty" hcl:"short_description,optional"`
	Description      string `yaml:"description,omitempty" hcl:"description,optional"`
	Author           string `yaml:"author,omitempty" hcl:"author,optional"`
	AuthorEmail      string `yaml:"author_email,omitempty" hcl:"author_email,optional"`
	URL              string `yaml:"url,omitempty" hcl:"url,optional"`
	License          string `yaml:"license,omitempty" hcl:"license,optional"`

	Platforms       []string `yaml:"platforms,omitempty" hcl:"platforms,optional"`
	Classifiers     []string `yaml:"classifiers,omitempty" hcl:"classifiers,optional"`
	Keywords        []string `yaml:"keywords,omitempty" hcl:"keywords,optional"`
	SetupRequires   []string `yaml:"setup_requires,omitempty" hcl:"setup_requires,optional"`
	InstallRequires []string `yaml:"install_requires,omitempty" hcl:"install_requires,optional"`
	Provides        []string `yaml:"provides,omitempty" hcl:"provides,optional"`

	Packages    []string            `yaml:"packages,omitempty" hcl:"packages,optional"`
	PackageData map[string][]string `yaml:"package_data,omitempty" hcl:"package_data,optional"`

	DataDirs        []string `yaml:"data_dirs,omitempty" hcl:"data_dirs,optional"`
	DataExts        []string `yaml:"data_exts,omitempty" hcl:"data_exts,optional"`
	StandardDocs    []string `yaml:"standard_docs,omitempty" hcl:"standard_docs,optional"`
	StandardDocExts []string `yaml:"standard_doc_exts,omitempty" hcl:"standard_doc_exts,optional"`
	IncludeDirs     []string `yaml:"include_dirs,omitempty" hcl:"include_dirs,optional"`

	MinPython string `yaml:"min_python,omitempty" hcl:"min_python,optional"`
	ZipSafe   bool   `yaml:"zip_safe,omitempty" hcl:"zip_safe,optional"`

	Extensions []ExtensionSpec `yaml:"extensions" hcl:"extension,block"`

	// path is the manifest file the project was loaded from
	path string
}

// LoadProject reads a YAML or HCL manifest and applies defaults.
func LoadProject(path string) (*Project, error) {
	var (
		project *Project
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		project, err = loadYAMLProject(path)
	case ".hcl":
		project, err = loadHCLProject(path)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	project.path = path
	project.ApplyDefaults()
	return project, nil
}

// FindManifest returns the first default manifest present in dir.
func FindManifest(dir string) (string, error) {
	for _, name := range DefaultManifestNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s (looked for %s)", dir, strings.Join(DefaultManifestNames, ", "))
}

func loadYAMLProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var project Project
	if err := dec.Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &project, nil
}

func loadHCLProject(path string) (*Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var project Project
	if diags := gohcl.DecodeBody(file.Body, nil, &project); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}
	return &project, nil
}

// Path returns the manifest file the project was loaded from, if any.
func (p *Project) Path() string {
	return p.path
}

// ApplyDefaults fills omitted fields with the template defaults.
func (p *Project) ApplyDefaults() {
	if p.LibName == "" {
		p.LibName = "mylibrary"
	}
	if p.BuildMode == "" {
		p.BuildMode = string(ModeOptimized)
	}
	if p.DataExts == nil {
		p.DataExts = cloneArgs(DefaultDataExts)
	}
	if p.StandardDocs == nil {
		p.StandardDocs = cloneArgs(DefaultStandardDocs)
	}
	if p.StandardDocExts == nil {
		p.StandardDocExts = cloneArgs(DefaultStandardDocExts)
	}
	if p.IncludeDirs == nil {
		p.IncludeDirs = []string{"."}
	}
	if p.MinPython == "" {
		p.MinPython = DefaultMinPython
	}
	if p.Packages == nil {
		p.Packages = []string{p.LibName}
	}
}

// Validate checks the manifest for errors that would only surface later in
// the build. The build mode is checked separately by Configure.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}

	seen := make(map[string]struct{}, len(p.Extensions))
	for _, spec := range p.Extensions {
		if err := ValidateModuleName(spec.Name); err != nil {
			return fmt.Errorf("extension: %w", err)
		}
		if _, dup := seen[spec.Name]; dup {
			return fmt.Errorf("extension %q declared more than once", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}

	for _, pkg := range p.Packages {
		if err := ValidateModuleName(pkg); err != nil {
			return fmt.Errorf("package: %w", err)
		}
	}

	return nil
}
