package cythonext

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceExt is the file extension of Cython module sources.
const SourceExt = ".pyx"

// Extension declares how one native module is compiled and linked.
//
// An Extension is built once by a Declarer and then consumed by a Builder.
type Extension struct {
	Name             string   `yaml:"name"`
	Sources          []string `yaml:"sources"`
	ExtraCompileArgs []string `yaml:"extra_compile_args"`
	ExtraLinkArgs    []string `yaml:"extra_link_args"`
	Libraries        []string `yaml:"libraries,omitempty"`
	Preset           string   `yaml:"preset"`
	OpenMP           bool     `yaml:"openmp"`
}

// ExtensionSpec is the manifest entry for one extension module.
type ExtensionSpec struct {
	Name     string   `yaml:"name" hcl:"name,label"`
	Numeric  bool     `yaml:"numeric" hcl:"numeric,optional"`
	Parallel bool     `yaml:"parallel" hcl:"parallel,optional"`
	Sources  []string `yaml:"sources,omitempty" hcl:"sources,optional"`
}

// PrimarySource returns the first source file, which selects the builder.
func (e *Extension) PrimarySource() string {
	if len(e.Sources) == 0 {
		return ""
	}
	return e.Sources[0]
}

// PackagePath returns the directory of the module relative to the project
// root, e.g. "mylibrary/submodule" for "mylibrary.submodule.helloworld".
func (e *Extension) PackagePath() string {
	idx := strings.LastIndex(e.Name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(e.Name[:idx], ".", string(filepath.Separator))
}

// BaseName returns the last component of the module name.
func (e *Extension) BaseName() string {
	return e.Name[strings.LastIndex(e.Name, ".")+1:]
}

// SourcePath derives the source file of a module from its dotted name:
// "mylibrary.compute" becomes "mylibrary/compute.pyx".
func SourcePath(name string) string {
	return strings.ReplaceAll(name, ".", string(filepath.Separator)) + SourceExt
}

// Declarer maps extension specs onto declarations for one build mode.
type Declarer struct {
	mode BuildMode
}

// NewDeclarer returns a Declarer for the given mode. An unknown mode is an
// error and no Declarer is returned.
func NewDeclarer(mode BuildMode) (*Declarer, error) {
	if _, err := ParseBuildMode(string(mode)); err != nil {
		return nil, err
	}
	return &Declarer{mode: mode}, nil
}

// Mode returns the build mode this Declarer was created with.
func (d *Declarer) Mode() BuildMode {
	return d.mode
}

// Declare builds the declaration for one module.
//
// Numeric modules get the numeric preset and link against libm. When
// parallel is set the OpenMP arguments are prepended to both argument lists.
func (d *Declarer) Declare(name string, numeric, parallel bool) *Extension {
	// mode was validated by NewDeclarer
	preset, _ := PresetFor(d.mode, numeric)

	ext := &Extension{
		Name:             name,
		Sources:          []string{SourcePath(name)},
		ExtraCompileArgs: preset.CompileArgs,
		ExtraLinkArgs:    preset.LinkArgs,
		Preset:           preset.Name,
		OpenMP:           parallel,
	}

	if numeric {
		ext.Libraries = []string{"m"}
	}

	if parallel {
		compile, link := OpenMPArgs()
		ext.ExtraCompileArgs = append(compile, ext.ExtraCompileArgs...)
		ext.ExtraLinkArgs = append(link, ext.ExtraLinkArgs...)
	}

	return ext
}

// DeclareSpec declares a module from its manifest entry. Explicit sources
// in the ExtensionSpec replace the derived source path.
func (d *Declarer) DeclareSpec(spec ExtensionSpec) *Extension {
	ext := d.Declare(spec.Name, spec.Numeric, spec.Parallel)
	if len(spec.Sources) > 0 {
		ext.Sources = make([]string, len(spec.Sources))
		for i, src := range spec.Sources {
			ext.Sources[i] = filepath.FromSlash(src)
		}
	}
	return ext
}

// DeclareAll declares every spec in order.
func (d *Declarer) DeclareAll(specs []ExtensionSpec) []*Extension {
	extensions := make([]*Extension, 0, len(specs))
	for _, spec := range specs {
		extensions = append(extensions, d.DeclareSpec(spec))
	}
	return extensions
}

// ValidateModuleName reports whether name is a usable dotted module name.
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("empty module name")
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return fmt.Errorf("invalid module name %q: empty component", name)
		}
		if strings.ContainsAny(part, `/\ `) {
			return fmt.Errorf("invalid module name %q: component %q contains a path separator or space", name, part)
		}
	}
	return nil
}
